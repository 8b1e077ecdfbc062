// Package wallet supplies the address a DID is issued to.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrInvalidAddress = errors.New("invalid wallet address")
	ErrNoAccounts     = errors.New("wallet returned no accounts")
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// Connector is the external wallet capability.
type Connector interface {
	RequestAccounts(ctx context.Context) (string, error)
}

// Provided is a Connector over an address the client already obtained from
// its wallet.
type Provided string

func (p Provided) RequestAccounts(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(string(p)) == "" {
		return "", ErrNoAccounts
	}
	return Normalize(string(p))
}

// Normalize validates an account address and returns its lower-case form.
func Normalize(address string) (string, error) {
	a := strings.ToLower(strings.TrimSpace(address))
	if !addressPattern.MatchString(a) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return a, nil
}

// Connect requests an account from c and validates it.
func Connect(ctx context.Context, c Connector) (string, error) {
	addr, err := c.RequestAccounts(ctx)
	if err != nil {
		return "", err
	}
	return Normalize(addr)
}

// Short renders an address as 0x1234...abcd for display.
func Short(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
