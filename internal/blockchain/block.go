// Package blockchain parses raw Bitcoin block files (the blk*.dat wire
// format a full node writes to disk) well enough to build a coin-value
// histogram for internal/generator's Distribution, without depending on
// a running node or RPC client.
//
// Grounded on original_source/src/blockchain/mod.rs's nom parser
// combinators, reimplemented against btcsuite/btcd's wire package for
// the compact-size varint and chainhash for the reversed-byte-order
// hash convention that package already carries in this module.
package blockchain

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// blockMagic is the mainnet block-file framing magic, matching the
// reference parser's literal byte sequence.
var blockMagic = [4]byte{0xf9, 0xbe, 0xb4, 0xd9}

// Header is a block header's six wire fields.
type Header struct {
	Version           uint32
	PreviousBlockHash chainhash.Hash
	MerkleRoot        chainhash.Hash
	Time              uint32
	Bits              uint32
	Nonce             uint32
}

// Outpoint identifies a previous transaction output being spent.
type Outpoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// Input is one transaction input.
type Input struct {
	PreviousOutput Outpoint
	Script         []byte
	Sequence       uint32
}

// Output is one transaction output; Value is in satoshis.
type Output struct {
	Value    int64
	PkScript []byte
}

// Transaction is one block-file transaction record.
type Transaction struct {
	Version  uint32
	Inputs   []Input
	Outputs  []Output
	LockTime uint32
}

// Block is a full block: header plus every transaction it contains.
type Block struct {
	Header       Header
	Transactions []Transaction
}

// Scanner iterates the magic-prefixed, length-framed block records of a
// single block file, matching the reference BlockFileIterator. It stops
// (Next returns false, nil) at a clean end of file and surfaces any
// other read or parse error as a non-nil error.
type Scanner struct {
	r *bufio.Reader
}

// NewScanner wraps r for block-by-block iteration.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// Next reads and parses the next framed block, returning (nil, false,
// nil) once the stream is exhausted.
func (s *Scanner) Next() (*Block, bool, error) {
	var magic [4]byte
	n, err := io.ReadFull(s.r, magic[:])
	if err == io.EOF || (err == io.ErrUnexpectedEOF && n == 0) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("blockchain: reading magic bytes: %w", err)
	}
	if magic != blockMagic {
		return nil, false, nil
	}

	var sizeBytes [4]byte
	if _, err := io.ReadFull(s.r, sizeBytes[:]); err != nil {
		return nil, false, fmt.Errorf("blockchain: reading block size: %w", err)
	}
	size := binary.LittleEndian.Uint32(sizeBytes[:])

	body := make([]byte, size)
	if _, err := io.ReadFull(s.r, body); err != nil {
		return nil, false, fmt.Errorf("blockchain: reading block body: %w", err)
	}

	block, err := parseBlock(body)
	if err != nil {
		return nil, false, fmt.Errorf("blockchain: parsing block: %w", err)
	}
	return block, true, nil
}

func parseHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h.Version); err != nil {
		return h, err
	}
	if _, err := io.ReadFull(r, h.PreviousBlockHash[:]); err != nil {
		return h, err
	}
	if _, err := io.ReadFull(r, h.MerkleRoot[:]); err != nil {
		return h, err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Time); err != nil {
		return h, err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Bits); err != nil {
		return h, err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Nonce); err != nil {
		return h, err
	}
	return h, nil
}

func parseOutpoint(r io.Reader) (Outpoint, error) {
	var o Outpoint
	if _, err := io.ReadFull(r, o.Hash[:]); err != nil {
		return o, err
	}
	if err := binary.Read(r, binary.LittleEndian, &o.Index); err != nil {
		return o, err
	}
	return o, nil
}

func parseInput(r io.Reader) (Input, error) {
	var in Input
	outpoint, err := parseOutpoint(r)
	if err != nil {
		return in, err
	}
	in.PreviousOutput = outpoint
	scriptLen, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return in, err
	}
	in.Script = make([]byte, scriptLen)
	if _, err := io.ReadFull(r, in.Script); err != nil {
		return in, err
	}
	if err := binary.Read(r, binary.LittleEndian, &in.Sequence); err != nil {
		return in, err
	}
	return in, nil
}

func parseOutput(r io.Reader) (Output, error) {
	var out Output
	if err := binary.Read(r, binary.LittleEndian, &out.Value); err != nil {
		return out, err
	}
	scriptLen, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return out, err
	}
	out.PkScript = make([]byte, scriptLen)
	if _, err := io.ReadFull(r, out.PkScript); err != nil {
		return out, err
	}
	return out, nil
}

func parseTransaction(r io.Reader) (Transaction, error) {
	var tx Transaction
	if err := binary.Read(r, binary.LittleEndian, &tx.Version); err != nil {
		return tx, err
	}
	inCount, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return tx, err
	}
	tx.Inputs = make([]Input, inCount)
	for i := range tx.Inputs {
		tx.Inputs[i], err = parseInput(r)
		if err != nil {
			return tx, err
		}
	}
	outCount, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return tx, err
	}
	tx.Outputs = make([]Output, outCount)
	for i := range tx.Outputs {
		tx.Outputs[i], err = parseOutput(r)
		if err != nil {
			return tx, err
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &tx.LockTime); err != nil {
		return tx, err
	}
	return tx, nil
}

func parseBlock(body []byte) (*Block, error) {
	r := bytes.NewReader(body)
	header, err := parseHeader(r)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	txCount, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, fmt.Errorf("tx count: %w", err)
	}
	transactions := make([]Transaction, txCount)
	for i := range transactions {
		transactions[i], err = parseTransaction(r)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	return &Block{Header: header, Transactions: transactions}, nil
}
