package replay

import (
	"testing"

	"zklite-ledger/internal/domain"
)

func TestLedgerChecksum_OrderIndependent(t *testing.T) {
	txs := []*domain.Transaction{
		ledgerTx(0x01, domain.TxDeposit, 100, "0xbridge", "0xalice", "10", nil),
		ledgerTx(0x02, domain.TxTransfer, 200, "0xalice", "0xbob", "3", decPtr("0.1")),
		ledgerTx(0x03, domain.TxTransfer, 200, "0xalice", "0xbob", "2", nil),
	}
	reversed := []*domain.Transaction{txs[2], txs[1], txs[0]}

	a := LedgerChecksum(txs)
	b := LedgerChecksum(reversed)
	if a != b {
		t.Errorf("checksum depends on input order: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(a))
	}
}

func TestLedgerChecksum_SensitiveToContent(t *testing.T) {
	base := []*domain.Transaction{
		ledgerTx(0x01, domain.TxDeposit, 100, "0xbridge", "0xalice", "10", nil),
	}
	feeZero := []*domain.Transaction{
		ledgerTx(0x01, domain.TxDeposit, 100, "0xbridge", "0xalice", "10", decPtr("0")),
	}

	// An absent fee and an explicit zero fee are different ledger contents.
	if LedgerChecksum(base) == LedgerChecksum(feeZero) {
		t.Error("checksum must distinguish absent fee from zero fee")
	}

	if LedgerChecksum(base) == LedgerChecksum(nil) {
		t.Error("checksum must distinguish empty ledger")
	}
}

func TestLedgerChecksum_DoesNotMutateInput(t *testing.T) {
	txs := []*domain.Transaction{
		ledgerTx(0x02, domain.TxTransfer, 200, "0xalice", "0xbob", "3", nil),
		ledgerTx(0x01, domain.TxDeposit, 100, "0xbridge", "0xalice", "10", nil),
	}

	LedgerChecksum(txs)

	if txs[0].Timestamp != 200 {
		t.Error("input slice was reordered")
	}
}
