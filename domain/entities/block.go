package entities

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// BlockAction names the operation a block records
type BlockAction string

const (
	BlockActionGenesis    BlockAction = "genesis"
	BlockActionDeploy     BlockAction = "deploy"
	BlockActionEnter      BlockAction = "enter"
	BlockActionPickWinner BlockAction = "pick_winner"
	BlockActionFund       BlockAction = "fund"
)

// ZeroHash is the parent hash of the genesis block
var ZeroHash = "0x" + strings.Repeat("0", 64)

// Block is one committed mutation of the ledger. Blocks form a hash chain;
// their context is the ambient state the default seed source draws from.
type Block struct {
	Number     int64       `db:"number"`
	Hash       string      `db:"hash"`
	ParentHash string      `db:"parent_hash"`
	Timestamp  time.Time   `db:"timestamp"`
	Caller     Address     `db:"caller"`
	Action     BlockAction `db:"action"`
	RaffleID   *int64      `db:"raffle_id"`
}

// BlockContext describes the block a pending operation will be sealed into
type BlockContext struct {
	Number     int64
	ParentHash string
	Timestamp  time.Time
}

// GenesisBlock returns block zero
func GenesisBlock() *Block {
	b := &Block{
		Number:     0,
		ParentHash: ZeroHash,
		Timestamp:  time.Unix(0, 0).UTC(),
		Action:     BlockActionGenesis,
	}
	b.Hash = b.ComputeHash()
	return b
}

// NextBlockContext returns the context of the block following head.
// Timestamps have second resolution.
func NextBlockContext(head *Block, now time.Time) *BlockContext {
	return &BlockContext{
		Number:     head.Number + 1,
		ParentHash: head.Hash,
		Timestamp:  now.UTC().Truncate(time.Second),
	}
}

// Seal builds the block for bc and computes its hash
func (bc *BlockContext) Seal(caller Address, action BlockAction, raffleID *int64) *Block {
	b := &Block{
		Number:     bc.Number,
		ParentHash: bc.ParentHash,
		Timestamp:  bc.Timestamp,
		Caller:     caller,
		Action:     action,
		RaffleID:   raffleID,
	}
	b.Hash = b.ComputeHash()
	return b
}

// ComputeHash returns the Keccak-256 hash of the block header fields
func (b *Block) ComputeHash() string {
	h := sha3.NewLegacyKeccak256()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(b.Number))
	h.Write(buf[:])
	h.Write(HashBytes(b.ParentHash))
	binary.BigEndian.PutUint64(buf[:], uint64(b.Timestamp.Unix()))
	h.Write(buf[:])
	h.Write(b.Caller.Bytes())
	h.Write([]byte(b.Action))
	if b.RaffleID != nil {
		binary.BigEndian.PutUint64(buf[:], uint64(*b.RaffleID))
		h.Write(buf[:])
	}

	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// Clone returns a deep copy
func (b *Block) Clone() *Block {
	c := *b
	if b.RaffleID != nil {
		id := *b.RaffleID
		c.RaffleID = &id
	}
	return &c
}

// HashBytes decodes a 0x-prefixed hex hash, returning nil when malformed
func HashBytes(hash string) []byte {
	b, err := hex.DecodeString(strings.TrimPrefix(hash, "0x"))
	if err != nil {
		return nil
	}
	return b
}

// VerifyChain checks that blocks start at genesis and that every block's
// number, parent link and hash are consistent
func VerifyChain(blocks []*Block) error {
	if len(blocks) == 0 {
		return fmt.Errorf("empty chain")
	}

	genesis := blocks[0]
	if genesis.Number != 0 || genesis.ParentHash != ZeroHash {
		return fmt.Errorf("invalid genesis block")
	}
	if genesis.Hash != genesis.ComputeHash() {
		return fmt.Errorf("genesis hash mismatch")
	}

	for i := 1; i < len(blocks); i++ {
		current, previous := blocks[i], blocks[i-1]
		if current.Number != previous.Number+1 {
			return fmt.Errorf("block %d: expected number %d", current.Number, previous.Number+1)
		}
		if current.ParentHash != previous.Hash {
			return fmt.Errorf("block %d: parent hash %s does not match %s", current.Number, current.ParentHash, previous.Hash)
		}
		if expected := current.ComputeHash(); current.Hash != expected {
			return fmt.Errorf("block %d: hash %s, expected %s", current.Number, current.Hash, expected)
		}
	}

	return nil
}
