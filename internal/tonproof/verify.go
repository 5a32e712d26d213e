// Package tonproof verifies ton_proof signatures produced by wallets during
// a TON Connect login.
package tonproof

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"go.uber.org/zap"

	"terminusdex/internal/boc"
	"terminusdex/internal/chain"
)

const (
	DefaultTTL = 5 * time.Minute

	itemPrefix   = "ton-proof-item-v2/"
	connectTag   = "ton-connect"
	connectMagic = 0xffff
)

var (
	ErrProofExpired          = errors.New("ton proof expired")
	ErrGettingPublicKey      = errors.New("failed to get public key")
	ErrPublicKeysMismatch    = errors.New("public keys mismatch")
	ErrSignatureVerification = errors.New("signature verification failed")
)

type Domain struct {
	LengthBytes uint32 `json:"lengthBytes"`
	Value       string `json:"value"`
}

// Proof is the ton_proof item returned by a wallet. Signature and StateInit
// are base64, PublicKey is hex.
type Proof struct {
	Timestamp int64  `json:"timestamp"`
	Domain    Domain `json:"domain"`
	Signature string `json:"signature"`
	Payload   string `json:"payload"`
	StateInit string `json:"state_init,omitempty"`
	PublicKey string `json:"public_key,omitempty"`
}

type Verifier struct {
	reader chain.Reader
	codes  map[string]WalletVersion
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Verifier)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(v *Verifier) { v.ttl = ttl }
}

func WithLogger(logger *zap.Logger) Option {
	return func(v *Verifier) { v.logger = logger }
}

// WithWalletCode registers an extra wallet code hash (hex).
func WithWalletCode(codeHash string, version WalletVersion) Option {
	return func(v *Verifier) { v.codes[strings.ToLower(codeHash)] = version }
}

// NewVerifier builds a verifier. reader may be nil, in which case keys are
// only taken from the proof's state init.
func NewVerifier(reader chain.Reader, opts ...Option) *Verifier {
	v := &Verifier{
		reader: reader,
		codes:  make(map[string]WalletVersion, len(DefaultWalletCodes)),
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for k, ver := range DefaultWalletCodes {
		v.codes[k] = ver
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Check verifies that proof was signed by the owner of wallet.
func (v *Verifier) Check(ctx context.Context, wallet *address.Address, proof Proof) error {
	log := v.logger.With(zap.String("wallet", wallet.String()))

	if v.now().Sub(time.Unix(proof.Timestamp, 0)) > v.ttl {
		log.Debug("ton proof expired", zap.Int64("timestamp", proof.Timestamp))
		return ErrProofExpired
	}

	key := v.resolveKey(ctx, wallet, proof, log)
	if key == nil {
		return ErrGettingPublicKey
	}

	if proof.PublicKey != "" {
		claimed, err := hex.DecodeString(proof.PublicKey)
		if err != nil || !bytes.Equal(claimed, key) {
			log.Debug("public keys mismatch")
			return ErrPublicKeysMismatch
		}
	}

	sig, err := base64.StdEncoding.DecodeString(proof.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureVerification, err)
	}
	if len(key) != ed25519.PublicKeySize || !ed25519.Verify(ed25519.PublicKey(key), SignedMessage(wallet, proof), sig) {
		log.Debug("signature verification failed")
		return ErrSignatureVerification
	}
	return nil
}

// resolveKey prefers the key in the state init, then asks the chain.
func (v *Verifier) resolveKey(ctx context.Context, wallet *address.Address, proof Proof, log *zap.Logger) []byte {
	var stateInit *cell.Cell
	if proof.StateInit != "" {
		c, err := boc.DecodeBase64(proof.StateInit)
		if err != nil {
			log.Debug("state init is not a valid boc", zap.Error(err))
		} else {
			stateInit = c
			if key, version, ok := publicKeyFromStateInit(c, v.codes); ok {
				log.Debug("public key taken from state init", zap.Stringer("version", version))
				return key
			}
		}
	}
	if v.reader == nil {
		return nil
	}

	key, err := v.reader.GetPublicKey(ctx, wallet)
	if err == nil && len(key) > 0 {
		return key
	}
	if err != nil {
		log.Debug("get_public_key failed", zap.Error(err))
	}
	if stateInit == nil {
		return nil
	}
	key, err = v.reader.GetPublicKeyFromStateInit(ctx, wallet, stateInit)
	if err != nil {
		log.Debug("public key from state init failed", zap.Error(err))
		return nil
	}
	if len(key) == 0 {
		return nil
	}
	return key
}

// SignedMessage is the digest a wallet signs for proof.
func SignedMessage(wallet *address.Address, proof Proof) []byte {
	var msg bytes.Buffer
	msg.WriteString(itemPrefix)
	_ = binary.Write(&msg, binary.LittleEndian, wallet.Workchain())
	msg.Write(wallet.Data())
	_ = binary.Write(&msg, binary.LittleEndian, proof.Domain.LengthBytes)
	msg.WriteString(proof.Domain.Value)
	_ = binary.Write(&msg, binary.LittleEndian, uint64(proof.Timestamp))
	msg.WriteString(proof.Payload)
	inner := sha256.Sum256(msg.Bytes())

	var full bytes.Buffer
	_ = binary.Write(&full, binary.BigEndian, uint16(connectMagic))
	full.WriteString(connectTag)
	full.Write(inner[:])
	sum := sha256.Sum256(full.Bytes())
	return sum[:]
}
