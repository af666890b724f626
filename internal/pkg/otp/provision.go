package otp

import (
	"errors"
	"net/url"

	pqotp "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// ErrMissingAccount is returned when a provisioning URI has no account name.
var ErrMissingAccount = errors.New("otp: account name is required")

// Provisioner creates secrets and otpauth:// URIs for authenticator apps.
type Provisioner struct {
	issuer     string
	secretSize uint
}

// NewProvisioner uses issuer for every URI it builds. secretSize is in bytes; zero means 20.
func NewProvisioner(issuer string, secretSize uint) *Provisioner {
	if secretSize == 0 {
		secretSize = 20
	}
	if issuer == "" {
		issuer = "otpkeeper"
	}
	return &Provisioner{issuer: issuer, secretSize: secretSize}
}

// NewSecret returns a random base32 secret suitable for EncodingBase32.
func (p *Provisioner) NewSecret(account string) (string, error) {
	key, err := p.key(account, nil, SHA1, DefaultDigits, DefaultPeriod)
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

// URI renders cfg as an otpauth://totp URI labelled with account.
func (p *Provisioner) URI(account string, cfg Config) (string, error) {
	key, err := p.key(account, cfg.key, cfg.algorithm, cfg.digits, cfg.period)
	if err != nil {
		return "", err
	}
	if cfg.algorithm != SHA384 {
		return key.URL(), nil
	}

	// the library has no SHA-384 constant; rewrite the parameter it emitted for SHA-1
	u, err := url.Parse(key.URL())
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("algorithm", "SHA384")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *Provisioner) key(account string, secret []byte, alg Algorithm, digits, period int) (*pqotp.Key, error) {
	if account == "" {
		return nil, ErrMissingAccount
	}
	return totp.Generate(totp.GenerateOpts{
		Issuer:      p.issuer,
		AccountName: account,
		Period:      uint(period),
		SecretSize:  p.secretSize,
		Secret:      secret,
		Digits:      pqotp.Digits(digits),
		Algorithm:   libAlgorithm(alg),
	})
}

func libAlgorithm(a Algorithm) pqotp.Algorithm {
	switch a {
	case SHA256:
		return pqotp.AlgorithmSHA256
	case SHA512:
		return pqotp.AlgorithmSHA512
	default:
		return pqotp.AlgorithmSHA1
	}
}
