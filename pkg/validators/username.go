package validators

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxUsernameLen = 150

var (
	ErrUsernameEmpty    = errors.New("no username provided")
	ErrUsernameTooLong  = errors.New("username is too long")
	ErrUsernameCharset  = errors.New("username may only contain letters, digits and @.+-_")
	ErrUsernameReserved = errors.New("username is reserved")

	usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

	// Names that collide with routes
	reservedUsernames = []string{"me"}
)

func UsernameValidator(u string) error {
	if u == "" {
		return ErrUsernameEmpty
	}

	if utf8.RuneCountInString(u) > maxUsernameLen {
		return ErrUsernameTooLong
	}

	if !usernameRe.MatchString(u) {
		return ErrUsernameCharset
	}

	for _, r := range reservedUsernames {
		if strings.EqualFold(u, r) {
			return ErrUsernameReserved
		}
	}

	return nil
}
