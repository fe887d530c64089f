package domain

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/sha3"
)

// Receipt records the outcome of a successful claim: the two escrow debits
// (payout to the winner, fee to the administrator) plus a keccak digest over
// the settled figures so the transfers can be verified externally.
type Receipt struct {
	MarketID   uint64    `json:"market_id"`
	Account    Account   `json:"account"`
	Side       Side      `json:"side"`
	Stake      int64     `json:"stake"`
	GrossShare int64     `json:"gross_share"`
	Fee        int64     `json:"fee"`
	Payout     int64     `json:"payout"`
	ClaimedAt  time.Time `json:"claimed_at"`
	Digest     string    `json:"digest"`
}

// Seal computes and stores the receipt digest. The digest covers every
// monetary field, so any tampering with the recorded figures is detectable.
func (r *Receipt) Seal() {
	h := sha3.NewLegacyKeccak256()

	var buf [8]byte
	put := func(v uint64) {
		binary.BigEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	put(r.MarketID)
	h.Write(r.Account.Bytes())
	h.Write([]byte(r.Side))
	put(uint64(r.Stake))
	put(uint64(r.GrossShare))
	put(uint64(r.Fee))
	put(uint64(r.Payout))

	r.Digest = hex.EncodeToString(h.Sum(nil))
}
