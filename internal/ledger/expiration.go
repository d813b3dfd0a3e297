package ledger

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	fullDateRe  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	shortDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)
	shorthandRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)(C|P)$`)
)

// ParseExpiration decodes an expiration token into a calendar date at
// midnight UTC. Accepted forms: the literal "0dte" (case-insensitive,
// meaning today), MM/DD/YYYY, and MM/DD (current year assumed). The parser
// only decodes formats; rejecting dates in the past is caller policy.
func ParseExpiration(token string) (time.Time, error) {
	token = strings.TrimSpace(token)

	if strings.EqualFold(token, "0dte") {
		y, m, d := time.Now().UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}

	if m := fullDateRe.FindStringSubmatch(token); m != nil {
		t, err := time.ParseInLocation("1/2/2006", fmt.Sprintf("%s/%s/%s", m[1], m[2], m[3]), time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, token)
		}
		return t, nil
	}

	if m := shortDateRe.FindStringSubmatch(token); m != nil {
		year := time.Now().UTC().Year()
		t, err := time.ParseInLocation("1/2/2006", fmt.Sprintf("%s/%s/%d", m[1], m[2], year), time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, token)
		}
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, token)
}

// ParseContract normalizes a contract descriptor to "CALL $<strike>" or
// "PUT $<strike>". Shorthand inputs like "150C", "150P", "C$150" and "P$150"
// are expanded; already-long forms pass through upper-cased.
func ParseContract(raw string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(raw))
	if c == "" {
		return "", fmt.Errorf("%w: empty descriptor", ErrInvalidContract)
	}

	if m := shorthandRe.FindStringSubmatch(c); m != nil {
		side := "CALL"
		if m[2] == "P" {
			side = "PUT"
		}
		return fmt.Sprintf("%s $%s", side, m[1]), nil
	}

	if strings.HasPrefix(c, "CALL") || strings.HasPrefix(c, "PUT") {
		return c, nil
	}

	if strings.Contains(c, "$") {
		parts := strings.SplitN(c, "$", 2)
		side, strike := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		switch side {
		case "C":
			return fmt.Sprintf("CALL $%s", strike), nil
		case "P":
			return fmt.Sprintf("PUT $%s", strike), nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidContract, raw)
}

// SplitContractExpiration splits a combined "CALL $150 05/17" style input
// into its contract and expiration tokens. The last whitespace-separated
// field is the expiration; everything before it is the contract.
func SplitContractExpiration(raw string) (contract, expiration string, err error) {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) < 2 {
		return "", "", fmt.Errorf("%w: expected \"<contract> <expiration>\", got %q", ErrInvalidContract, raw)
	}
	expiration = fields[len(fields)-1]
	contract = strings.Join(fields[:len(fields)-1], " ")
	return contract, expiration, nil
}
