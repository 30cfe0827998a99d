package verifier

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
	"go.uber.org/zap"
)

// OutputVerifier compares decoded transaction outputs with claimed outputs.
// Only pay-to-pubkey-hash outputs take part in the decision; other script
// classes are logged and skipped. A transaction without any P2PKH output
// stays unverified.
type OutputVerifier struct {
	params *chaincfg.Params
	logger *zap.Logger
}

func NewOutputVerifier(params *chaincfg.Params, logger *zap.Logger) *OutputVerifier {
	return &OutputVerifier{params: params, logger: logger}
}

// Check requires every P2PKH output to match the claim at the same index by
// address and amount.
func (v *OutputVerifier) Check(claimed []model.ClaimedOutput, tx *wire.MsgTx) model.TxStatus {
	txid := tx.TxHash().String()
	checked := 0
	for i, out := range tx.TxOut {
		class := txscript.GetScriptClass(out.PkScript)
		if class != txscript.PubKeyHashTy {
			v.logger.Debug("output not checked",
				zap.String("txid", txid),
				zap.Int("index", i),
				zap.String("class", class.String()),
			)
			continue
		}

		_, addrs, _, err := txscript.ExtractPkScriptAddrs(out.PkScript, v.params)
		if err != nil || len(addrs) != 1 {
			v.logger.Debug("p2pkh address not extracted", zap.String("txid", txid), zap.Int("index", i), zap.Error(err))
			return model.TxUnverified
		}
		if i >= len(claimed) {
			v.logger.Debug("no claim for output", zap.String("txid", txid), zap.Int("index", i))
			return model.TxUnverified
		}

		address := addrs[0].EncodeAddress()
		if claimed[i].Address != address || claimed[i].Amount != out.Value {
			v.logger.Debug("output mismatch",
				zap.String("txid", txid),
				zap.Int("index", i),
				zap.String("address", address),
				zap.String("claimed_address", claimed[i].Address),
				zap.Int64("amount", out.Value),
				zap.Int64("claimed_amount", claimed[i].Amount),
			)
			return model.TxUnverified
		}
		checked++
	}
	if checked == 0 {
		return model.TxUnverified
	}
	return model.TxVerified
}
