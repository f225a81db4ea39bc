package payments

import (
	"fmt"
	"strings"

	"bidding-engine/internal/biddingerrors"
)

// FormatPhone normalises a Kenyan mobile number to 254XXXXXXXXX.
func FormatPhone(raw string) (string, error) {
	phone := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	phone = strings.TrimPrefix(phone, "+")

	if strings.HasPrefix(phone, "0") {
		phone = "254" + phone[1:]
	}
	if len(phone) == 9 && (phone[0] == '7' || phone[0] == '1') {
		phone = "254" + phone
	}

	if len(phone) != 12 || !strings.HasPrefix(phone, "254") {
		return "", fmt.Errorf("%w - %q is not a Kenyan mobile number", biddingerrors.ErrInvalidPhone, raw)
	}
	for _, c := range phone {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("%w - %q is not a Kenyan mobile number", biddingerrors.ErrInvalidPhone, raw)
		}
	}
	return phone, nil
}
