// Package ingest decodes caller-reported transactions from a newline-delimited
// JSON stream into pending verifications.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
	"github.com/goodnatureofminers/blockinsight7000-spv/pkg/safe"
)

// ErrInvalidRecord marks a line that is not a usable transaction record.
var ErrInvalidRecord = errors.New("invalid transaction record")

// DefaultMaxLineSize bounds a single record.
const DefaultMaxLineSize = 1 << 20

type outputRecord struct {
	Address string `json:"address"`
	Amount  *int64 `json:"amount"`
}

type record struct {
	TxID        string         `json:"txid"`
	BlockHash   string         `json:"blockhash"`
	BlockHeight *int64         `json:"blockheight"`
	Outputs     []outputRecord `json:"outputs"`
	WalletID    string         `json:"walletId"`
	Operation   string         `json:"operation"`
}

// Decoder reads one record per line. Lines may arrive split across reads; a
// trailing line without a newline is decoded at EOF.
type Decoder struct {
	r           *bufio.Reader
	maxLineSize int
	line        int
	operation   string
	now         func() time.Time
}

// NewDecoder reads from r. operation fills records that carry none.
func NewDecoder(r io.Reader, operation string) *Decoder {
	return &Decoder{
		r:           bufio.NewReader(r),
		maxLineSize: DefaultMaxLineSize,
		operation:   operation,
		now:         time.Now,
	}
}

// Next returns the next record, io.EOF at end of input, or an error wrapping
// ErrInvalidRecord. Decoding may continue after an invalid record.
func (d *Decoder) Next() (model.PendingVerification, error) {
	for {
		raw, err := d.readLine()
		if err != nil {
			return model.PendingVerification{}, err
		}
		d.line++
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		return d.decode(raw)
	}
}

func (d *Decoder) readLine() ([]byte, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := d.r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && len(buf) > 0 {
				return buf, nil
			}
			return nil, err
		}
		buf = append(buf, chunk...)
		if len(buf) > d.maxLineSize {
			if err := d.skipLine(isPrefix); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			d.line++
			return nil, fmt.Errorf("%w: line %d exceeds %d bytes", ErrInvalidRecord, d.line, d.maxLineSize)
		}
		if !isPrefix {
			return buf, nil
		}
	}
}

func (d *Decoder) skipLine(isPrefix bool) error {
	for isPrefix {
		var err error
		if _, isPrefix, err = d.r.ReadLine(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) decode(raw []byte) (model.PendingVerification, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.PendingVerification{}, fmt.Errorf("%w: line %d: %v", ErrInvalidRecord, d.line, err)
	}
	if err := rec.validate(); err != nil {
		return model.PendingVerification{}, fmt.Errorf("%w: line %d: %v", ErrInvalidRecord, d.line, err)
	}

	height, err := safe.Uint32(*rec.BlockHeight)
	if err != nil {
		return model.PendingVerification{}, fmt.Errorf("%w: line %d: blockheight: %v", ErrInvalidRecord, d.line, err)
	}
	outputs := make([]model.ClaimedOutput, len(rec.Outputs))
	for i, o := range rec.Outputs {
		outputs[i] = model.ClaimedOutput{Address: o.Address, Amount: *o.Amount}
	}
	operation := rec.Operation
	if operation == "" {
		operation = d.operation
	}
	// chainhash renders lowercase; ids are compared against it verbatim
	return model.PendingVerification{
		TxID:        strings.ToLower(rec.TxID),
		BlockHash:   strings.ToLower(rec.BlockHash),
		BlockHeight: height,
		Outputs:     outputs,
		WalletID:    rec.WalletID,
		Operation:   operation,
		ReceivedAt:  d.now().UTC(),
	}, nil
}

func (r record) validate() error {
	if !isHash(r.TxID) {
		return fmt.Errorf("txid %q is not a 64 char hex hash", r.TxID)
	}
	if !isHash(r.BlockHash) {
		return fmt.Errorf("blockhash %q is not a 64 char hex hash", r.BlockHash)
	}
	if r.BlockHeight == nil {
		return errors.New("blockheight missing")
	}
	for i, o := range r.Outputs {
		if o.Address == "" {
			return fmt.Errorf("outputs[%d].address missing", i)
		}
		if o.Amount == nil {
			return fmt.Errorf("outputs[%d].amount missing", i)
		}
		if *o.Amount < 0 {
			return fmt.Errorf("outputs[%d].amount %d is negative", i, *o.Amount)
		}
	}
	return nil
}

func isHash(s string) bool {
	if len(s) != chainhash.MaxHashStringSize {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
