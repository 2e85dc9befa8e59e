// Package autotype parses the Password Safe keystroke-script language into
// a stream of tokens. A script mixes literal keys with backslash escapes
// naming entry fields (\u, \p, ...), special keys (\t, \n, ...), and timed
// actions (\d, \w, \W with a numeric argument).
package autotype

import (
	"strconv"
	"strings"

	"github.com/dmitrijs2005/pwvault/pwsafe"
)

// Kind discriminates token kinds.
type Kind int

const (
	// KindKey is a literal keystroke to send, in send-keys notation.
	KindKey Kind = iota
	// KindCommand is a symbolic action, e.g. a field to expand or a delay.
	KindCommand
)

// Token is one element of a parsed keystroke script.
type Token struct {
	Kind  Kind
	Value string
}

func key(s string) Token     { return Token{Kind: KindKey, Value: s} }
func command(s string) Token { return Token{Kind: KindCommand, Value: s} }

type state int

const (
	stateDefault state = iota
	stateEscape
	stateCreditCard
	stateMandatoryNumber
	stateOptionalNumber
)

// Tokenize parses a keystroke script without binding it to an entry; field
// escapes stay symbolic Command tokens. An empty script yields the default
// sequence: user name, tab, password, tab, enter.
func Tokenize(text string) []Token {
	if text == "" {
		return []Token{
			command("UserName"), key("{Tab}"),
			command("Password"), key("{Tab}"),
			key("{Enter}"),
		}
	}

	var tokens []Token
	st := stateDefault
	var numCmd rune // escape that opened the number state: d, w, or W
	var digits []rune

	flushNumber := func() {
		n, _ := strconv.Atoi(string(digits))
		switch numCmd {
		case 'd':
			tokens = append(tokens, command("Delay:"+strconv.Itoa(n)))
		case 'w':
			tokens = append(tokens, command("Wait:"+strconv.Itoa(n)))
		case 'W':
			tokens = append(tokens, command("Wait:"+strconv.Itoa(n*1000)))
		}
		digits = nil
	}
	flushNotes := func() {
		if len(digits) > 0 {
			tokens = append(tokens, command("Notes:"+string(digits)))
		} else {
			tokens = append(tokens, command("Notes"))
		}
		digits = nil
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch st {
		case stateDefault:
			if ch == '\\' {
				st = stateEscape
			} else {
				tokens = append(tokens, key(string(ch)))
			}

		case stateEscape:
			st = stateDefault
			switch ch {
			case 'u':
				tokens = append(tokens, command("UserName"))
			case 'p':
				tokens = append(tokens, command("Password"))
			case '2':
				tokens = append(tokens, command("TwoFactorCode"))
			case 'g':
				tokens = append(tokens, command("Group"))
			case 'i':
				tokens = append(tokens, command("Title"))
			case 'l':
				tokens = append(tokens, command("Url"))
			case 'm':
				tokens = append(tokens, command("Email"))
			case 'z':
				tokens = append(tokens, command("Legacy"))
			case 'b':
				tokens = append(tokens, key("{Backspace}"))
			case 't':
				tokens = append(tokens, key("{Tab}"))
			case 's':
				tokens = append(tokens, key("+{Tab}"))
			case 'n':
				tokens = append(tokens, key("{Enter}"))
			case 'c':
				st = stateCreditCard
			case 'd', 'w', 'W':
				numCmd = ch
				digits = nil
				st = stateMandatoryNumber
			case 'o':
				digits = nil
				st = stateOptionalNumber
			default:
				tokens = append(tokens, key(string(ch)))
			}

		case stateCreditCard:
			st = stateDefault
			switch ch {
			case 'n':
				tokens = append(tokens, command("CreditCardNumber"))
			case 'e':
				tokens = append(tokens, command("CreditCardExpiration"))
			case 'v':
				tokens = append(tokens, command("CreditCardVerification"))
			case 'p':
				tokens = append(tokens, command("CreditCardPin"))
			default:
				tokens = append(tokens, PushKeys("c"+string(ch))...)
			}

		case stateMandatoryNumber:
			switch {
			case ch >= '0' && ch <= '9':
				digits = append(digits, ch)
				if len(digits) == 3 {
					flushNumber()
					st = stateDefault
				}
			case len(digits) == 0:
				// A mandatory number did not start with a digit: the whole
				// escape degrades to literal keys.
				tokens = append(tokens, PushKeys(string(numCmd)+string(ch))...)
				st = stateDefault
			default:
				flushNumber()
				st = stateDefault
				i--
			}

		case stateOptionalNumber:
			if ch >= '0' && ch <= '9' {
				digits = append(digits, ch)
				if len(digits) == 3 {
					flushNotes()
					st = stateDefault
				}
			} else {
				flushNotes()
				st = stateDefault
				i--
			}
		}
	}

	switch st {
	case stateEscape:
		tokens = append(tokens, key(`\`))
	case stateCreditCard:
		tokens = append(tokens, PushKeys("c")...)
	case stateMandatoryNumber:
		if len(digits) == 0 {
			tokens = append(tokens, PushKeys(string(numCmd))...)
		} else {
			flushNumber()
		}
	case stateOptionalNumber:
		flushNotes()
	}

	return tokens
}

// TokenizeFor parses a keystroke script bound to an entry: field commands
// expand into per-character Key tokens from the entry's records, while
// timed and legacy commands pass through symbolically.
func TokenizeFor(text string, entry *pwsafe.Entry) []Token {
	var out []Token
	for _, t := range Tokenize(text) {
		if t.Kind == KindKey {
			out = append(out, t)
			continue
		}
		switch t.Value {
		case "UserName":
			out = append(out, PushKeys(entry.UserName())...)
		case "Password":
			out = append(out, PushKeys(entry.Password())...)
		case "Group":
			out = append(out, PushKeys(entry.Group())...)
		case "Title":
			out = append(out, PushKeys(entry.Title())...)
		case "Url":
			out = append(out, PushKeys(entry.Url())...)
		case "Email":
			out = append(out, PushKeys(entry.Email())...)
		case "CreditCardNumber":
			out = append(out, PushKeys(entry.CreditCardNumber())...)
		case "CreditCardExpiration":
			out = append(out, PushKeys(entry.CreditCardExpiration())...)
		case "CreditCardVerification":
			out = append(out, PushKeys(entry.CreditCardVerifValue())...)
		case "CreditCardPin":
			out = append(out, PushKeys(entry.CreditCardPin())...)
		case "Notes":
			out = append(out, PushKeys(normalizeNewlines(entry.Notes()))...)
		default:
			if line, ok := strings.CutPrefix(t.Value, "Notes:"); ok {
				out = append(out, notesLine(entry.Notes(), line)...)
				continue
			}
			// TwoFactorCode, Legacy, Delay:N, Wait:N stay symbolic.
			out = append(out, t)
		}
	}
	return out
}

// notesLine expands a single 1-indexed line of the notes. Out-of-range or
// non-numeric selectors produce no output.
func notesLine(notes, selector string) []Token {
	n, err := strconv.Atoi(selector)
	if err != nil || n < 1 {
		return nil
	}
	lines := strings.Split(normalizeNewlines(notes), "\n")
	if n > len(lines) {
		return nil
	}
	return PushKeys(lines[n-1])
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// PushKeys maps text into per-character Key tokens in send-keys notation:
// the meta characters + ^ % ~ ( ) { } [ ] are emitted as bracketed
// literals, control characters become their named keys, and everything
// else emits itself unchanged.
func PushKeys(text string) []Token {
	tokens := make([]Token, 0, len(text))
	for _, r := range text {
		switch r {
		case '+', '^', '%', '~', '(', ')', '{', '}', '[', ']':
			tokens = append(tokens, key("{"+string(r)+"}"))
		case '\b':
			tokens = append(tokens, key("{Backspace}"))
		case '\n', '\r':
			tokens = append(tokens, key("{Enter}"))
		case '\t':
			tokens = append(tokens, key("{Tab}"))
		default:
			tokens = append(tokens, key(string(r)))
		}
	}
	return tokens
}
