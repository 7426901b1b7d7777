package bridge

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/cocobolo/uitest/internal/errs"
)

const (
	appName        = "Cocobolo"
	appVersion     = "0.4.2"
	appDescription = "A secure, encrypted note-taking application"

	minPasswordLength = 12
)

func (d *Dispatcher) getAppInfo(_ context.Context, _ Call) (any, error) {
	return AppInfo{
		Name:        appName,
		Version:     appVersion,
		Description: appDescription,
	}, nil
}

func (d *Dispatcher) greet(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[greetArgs](call.Args)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Name) == "" {
		return nil, errs.New(errs.InvalidArgument, "Name cannot be empty")
	}
	return fmt.Sprintf("Hello, %s! Welcome to Cocobolo - your secure note-taking companion!", args.Name), nil
}

func (d *Dispatcher) getAppConfig(_ context.Context, _ Call) (any, error) {
	return d.fx.Config, nil
}

func (d *Dispatcher) validatePasswordStrength(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[passwordArgs](call.Args)
	if err != nil {
		return nil, err
	}
	return ScorePassword(args.Password), nil
}

// ScorePassword scores a candidate vault password 0-4 and reports issues and
// suggestions. Valid means no issues. One point each for length, uppercase,
// lowercase, digit, and symbol; a bonus point at 16+ characters; capped at 4.
func ScorePassword(password string) PasswordStrength {
	issues := []string{}
	suggestions := []string{}
	score := 0

	if len(password) < minPasswordLength {
		issues = append(issues, fmt.Sprintf("Password must be at least %d characters long", minPasswordLength))
		suggestions = append(suggestions, "Use a longer password for better security")
	} else {
		score++
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if !hasUpper {
		issues = append(issues, "Password must contain at least one uppercase letter")
		suggestions = append(suggestions, "Add uppercase letters (A-Z)")
	} else {
		score++
	}
	if !hasLower {
		issues = append(issues, "Password must contain at least one lowercase letter")
		suggestions = append(suggestions, "Add lowercase letters (a-z)")
	} else {
		score++
	}
	if !hasDigit {
		issues = append(issues, "Password must contain at least one number")
		suggestions = append(suggestions, "Add numbers (0-9)")
	} else {
		score++
	}
	if !hasSymbol {
		issues = append(issues, "Password must contain at least one symbol")
		suggestions = append(suggestions, "Add symbols (!@#$%^&*)")
	} else {
		score++
	}

	if len(password) >= 16 {
		score++
	}

	isValid := len(issues) == 0
	if isValid && len(suggestions) == 0 {
		switch {
		case score <= 2:
			suggestions = append(suggestions, "Consider using a longer password with more variety")
		case score == 3:
			suggestions = append(suggestions, "Good password! Consider making it even longer")
		case score == 4:
			suggestions = append(suggestions, "Strong password!")
		default:
			suggestions = append(suggestions, "Excellent password!")
		}
	}

	if score > 4 {
		score = 4
	}
	return PasswordStrength{
		IsValid:     isValid,
		Score:       score,
		Issues:      issues,
		Suggestions: suggestions,
	}
}
