package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/spec-kit/ticket-manager/internal/domain"
)

const (
	ticketIDHexLen     = 6
	ticketIDMaxRetries = 100
)

var ticketTypePrefix = map[domain.TicketType]string{
	domain.TicketTypeIncidence:  "INC",
	domain.TicketTypeSuggestion: "SUG",
}

const hexAlphabet = "0123456789ABCDEF"

func randomHexDigits(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(hexAlphabet))))
		if err != nil {
			// crypto/rand failure means the platform is broken; fall
			// back to a time-derived digit rather than panic.
			sb.WriteByte(hexAlphabet[time.Now().UnixNano()%int64(len(hexAlphabet))])
			continue
		}
		sb.WriteByte(hexAlphabet[idx.Int64()])
	}
	return sb.String()
}

// GenerateTicketID produces a unique ticket identifier of the form
// INCXXXXXX or SUGXXXXXX. exists is consulted to avoid collisions;
// after too many attempts a timestamp-derived suffix guarantees an exit.
func GenerateTicketID(ctx context.Context, ticketType domain.TicketType, exists func(context.Context, string) (bool, error)) (string, error) {
	prefix, ok := ticketTypePrefix[ticketType]
	if !ok {
		return "", fmt.Errorf("invalid ticket type: %q", ticketType)
	}

	for attempt := 0; attempt < ticketIDMaxRetries; attempt++ {
		id := prefix + randomHexDigits(ticketIDHexLen)
		taken, err := exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}

	suffix := fmt.Sprintf("%06X", time.Now().Unix()%0x1000000)
	return prefix + suffix, nil
}

// ValidTicketID reports whether id follows the INC/SUG + 6 hex format.
func ValidTicketID(id string) bool {
	if len(id) != 3+ticketIDHexLen {
		return false
	}
	prefix := id[:3]
	if prefix != "INC" && prefix != "SUG" {
		return false
	}
	for _, c := range id[3:] {
		if !strings.ContainsRune(hexAlphabet, c) && !strings.ContainsRune("abcdef", c) {
			return false
		}
	}
	return true
}

// TicketTypeFromID recovers the ticket type encoded in the ID prefix.
func TicketTypeFromID(id string) (domain.TicketType, error) {
	if !ValidTicketID(id) {
		return "", fmt.Errorf("invalid ticket id format: %q", id)
	}
	if strings.HasPrefix(id, "INC") {
		return domain.TicketTypeIncidence, nil
	}
	return domain.TicketTypeSuggestion, nil
}
