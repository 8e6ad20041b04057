package auth

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"
	"time"
)

// Registration validation errors, in the order the rules are applied.
var (
	ErrMalformedEmail     = errors.New("el formato del correo no es válido")
	ErrDisposableDomain   = errors.New("no se permiten correos temporales o desechables")
	ErrUnresolvableDomain = errors.New("el dominio del correo no tiene servidor de correo configurado")
	ErrDuplicateEmail     = errors.New("este correo ya está registrado")
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// DefaultDisposableDomains lists well-known throwaway email providers.
func DefaultDisposableDomains() map[string]struct{} {
	return DomainSet([]string{
		"mailinator.com", "yopmail.com", "guerrillamail.com", "10minutemail.com",
		"tempmail.com", "fakeinbox.com", "sharklasers.com", "trashmail.com",
		"maildrop.cc", "getnada.com", "dispostable.com", "mailnesia.com",
	})
}

// DomainSet normalizes a domain list into a lookup set.
func DomainSet(domains []string) map[string]struct{} {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			set[d] = struct{}{}
		}
	}
	return set
}

// MXResolver checks that a domain can receive mail. The stdlib resolver
// satisfies it via resolverFunc.
type MXResolver interface {
	LookupMX(ctx context.Context, domain string) error
}

type resolverFunc func(ctx context.Context, domain string) error

func (f resolverFunc) LookupMX(ctx context.Context, domain string) error { return f(ctx, domain) }

// NetResolver resolves MX records through net.DefaultResolver with a
// bounded timeout.
func NetResolver() MXResolver {
	return resolverFunc(func(ctx context.Context, domain string) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		records, err := net.DefaultResolver.LookupMX(ctx, domain)
		if err != nil || len(records) == 0 {
			return ErrUnresolvableDomain
		}
		return nil
	})
}

// EmailValidator applies the registration email rules in order; the
// first failing rule wins. The MX check only runs when enabled.
type EmailValidator struct {
	disposable map[string]struct{}
	checkMX    bool
	resolver   MXResolver
}

func NewEmailValidator(disposable map[string]struct{}, checkMX bool, resolver MXResolver) *EmailValidator {
	if disposable == nil {
		disposable = DefaultDisposableDomains()
	}
	if resolver == nil {
		resolver = NetResolver()
	}
	return &EmailValidator{disposable: disposable, checkMX: checkMX, resolver: resolver}
}

// Validate returns the normalized (lowercased) email or the specific
// rule error. Uniqueness is checked by the caller against the store.
func (v *EmailValidator) Validate(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return "", ErrMalformedEmail
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	if _, blocked := v.disposable[domain]; blocked {
		return "", ErrDisposableDomain
	}
	if v.checkMX {
		if err := v.resolver.LookupMX(ctx, domain); err != nil {
			return "", ErrUnresolvableDomain
		}
	}
	return email, nil
}
