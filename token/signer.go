package token

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer is an interface for signing and verifying JWT tokens
type Signer interface {
	// Sign creates a signed JWT token from claims
	Sign(claims jwt.Claims) (string, error)

	// GetVerificationKey returns the key used to verify the token's signature
	GetVerificationKey(token *jwt.Token) (any, error)

	// GetSigningMethod returns the JWT signing method used
	GetSigningMethod() jwt.SigningMethod
}

// NewSigner builds the signer for the configured algorithm. HMAC algorithms use
// secret, RSA and ECDSA algorithms use the PEM encoded private key.
func NewSigner(algorithm, secret, privateKeyPEM string) (Signer, error) {
	switch alg := strings.ToUpper(algorithm); alg {
	case "HS256":
		return NewHMACSigner(secret, jwt.SigningMethodHS256)
	case "HS384":
		return NewHMACSigner(secret, jwt.SigningMethodHS384)
	case "HS512":
		return NewHMACSigner(secret, jwt.SigningMethodHS512)
	case "RS256", "RS384", "RS512", "ES256", "ES384", "ES512":
		keyPair, err := LoadKeyPairFromPEM("", privateKeyPEM, alg)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load %s signing key", alg)
		}
		return NewKeyPairSigner(keyPair), nil
	default:
		return nil, errors.Errorf("unsupported signing algorithm: %s", algorithm)
	}
}

// HMACSigner implements Signer using a symmetric secret
type HMACSigner struct {
	secret []byte
	method *jwt.SigningMethodHMAC
}

// NewHMACSigner creates a new HMAC signer with the given secret
func NewHMACSigner(secret string, method *jwt.SigningMethodHMAC) (*HMACSigner, error) {
	if secret == "" {
		return nil, errors.New("hmac secret must not be empty")
	}
	if method == nil {
		method = jwt.SigningMethodHS256
	}
	return &HMACSigner{
		secret: []byte(secret),
		method: method,
	}, nil
}

func (h *HMACSigner) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(h.method, claims)
	signedToken, err := token.SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signedToken, nil
}

func (h *HMACSigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

func (h *HMACSigner) GetSigningMethod() jwt.SigningMethod {
	return h.method
}

// KeyPairSigner implements Signer using RSA or ECDSA
type KeyPairSigner struct {
	keyPair *KeyPair
}

// NewKeyPairSigner creates a new key pair signer with the given key pair
func NewKeyPairSigner(keyPair *KeyPair) *KeyPairSigner {
	return &KeyPairSigner{
		keyPair: keyPair,
	}
}

func (a *KeyPairSigner) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(a.keyPair.GetSigningMethod(), claims)
	if a.keyPair.KeyID != "" {
		token.Header["kid"] = a.keyPair.KeyID
	}

	signedToken, err := token.SignedString(a.keyPair.PrivateKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with asymmetric key")
	}
	return signedToken, nil
}

func (a *KeyPairSigner) GetVerificationKey(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
		return a.keyPair.PublicKey, nil
	default:
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
}

func (a *KeyPairSigner) GetSigningMethod() jwt.SigningMethod {
	return a.keyPair.GetSigningMethod()
}
