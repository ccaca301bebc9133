package coin

import (
	"fmt"
	"math/big"
	"strings"
)

// Coin identifies one of the tradable assets: the three supported
// stablecoins plus OUSD itself.
type Coin string

const (
	DAI  Coin = "dai"
	USDT Coin = "usdt"
	USDC Coin = "usdc"
	OUSD Coin = "ousd"
)

// Stablecoins lists the coins that can be used to mint OUSD, in display order.
var Stablecoins = []Coin{DAI, USDT, USDC}

// decimals maps each coin to its ERC-20 decimal precision
var decimals = map[Coin]int{
	DAI:  18,
	USDT: 6,
	USDC: 6,
	OUSD: 18,
}

func FromString(s string) (Coin, error) {
	c := Coin(strings.ToLower(s))
	if _, ok := decimals[c]; !ok {
		return "", fmt.Errorf("unknown coin: %s", s)
	}
	return c, nil
}

func (c Coin) String() string {
	return string(c)
}

func (c Coin) IsStablecoin() bool {
	return c != OUSD && c.Valid()
}

func (c Coin) Valid() bool {
	_, ok := decimals[c]
	return ok
}

// Decimals returns the ERC-20 decimal precision for the coin.
func (c Coin) Decimals() (int, error) {
	d, ok := decimals[c]
	if !ok {
		return 0, fmt.Errorf("unknown coin: %s", c)
	}
	return d, nil
}

// ToBaseUnits converts a human-readable amount to base units
// e.g., "10" USDC (6 decimals) -> 10000000
func ToBaseUnits(amount string, dec int) (*big.Int, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	negative := false
	if strings.HasPrefix(amount, "-") {
		negative = true
		amount = amount[1:]
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}
	whole := parts[0]
	frac := ""
	if len(parts) > 1 {
		frac = parts[1]
	}

	// Pad or truncate fractional part to decimals length
	if len(frac) < dec {
		frac += strings.Repeat("0", dec-len(frac))
	} else if len(frac) > dec {
		frac = frac[:dec]
	}

	combined := strings.TrimLeft(whole+frac, "0")
	if combined == "" {
		combined = "0"
	}

	result, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}

	if negative {
		result.Neg(result)
	}
	return result, nil
}

// FromBaseUnits converts base units to a human-readable amount
// e.g., 10000000 with 6 decimals -> "10"
func FromBaseUnits(amount *big.Int, dec int) string {
	if amount == nil {
		return "0"
	}

	str := amount.String()
	negative := false
	if strings.HasPrefix(str, "-") {
		negative = true
		str = str[1:]
	}

	if len(str) <= dec {
		str = strings.Repeat("0", dec-len(str)+1) + str
	}

	insertPos := len(str) - dec
	whole := str[:insertPos]
	frac := strings.TrimRight(str[insertPos:], "0")

	result := whole
	if frac != "" {
		result = whole + "." + frac
	}
	if negative {
		result = "-" + result
	}
	return result
}
