package sessions

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	gwerrors "github.com/jrsteele09/seller-gateway/internal/errors"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealedPrefix = "v1."
	sealInfo     = "seller-gateway session cookie v1"
	nonceSize    = 24
)

type sealer struct {
	key [32]byte
}

func newSealer(secret string) (*sealer, error) {
	s := &sealer{}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(sealInfo))
	if _, err := io.ReadFull(kdf, s.key[:]); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	return s, nil
}

func (s *sealer) seal(payload []byte) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], payload, &nonce, &s.key)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(box), nil
}

func (s *sealer) open(value string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(value, sealedPrefix)
	if !ok {
		return nil, gwerrors.ErrSessionSealed
	}
	box, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return nil, gwerrors.ErrSessionSealed
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	payload, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, gwerrors.ErrSessionSealed
	}
	return payload, nil
}
