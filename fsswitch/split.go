package fsswitch

import "strings"

// originateSplit is a quote-aware tokenizer for originate command strings.
// It splits line on splitAt, respecting single-quote pairing so that
// splitAt characters inside a quoted value are not treated as boundaries.
// A backslash-escaped quote ("\'") does not toggle the quote state.
func originateSplit(line string, splitAt rune) ([]string, error) {
	var tokens []string
	var token strings.Builder
	inQuote := false
	runes := []rune(line)

	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if ch == splitAt && !inQuote && strings.TrimSpace(token.String()) != "" {
			tokens = append(tokens, strings.TrimSpace(token.String()))
			token.Reset()
			continue
		}
		if ch == splitAt && !inQuote {
			continue
		}

		if ch == '\'' && !(i > 0 && runes[i-1] == '\\') {
			inQuote = !inQuote
		}

		token.WriteRune(ch)
	}

	if inQuote {
		return nil, &OriginateError{Kind: OriginateErrUnclosedQuote, Message: token.String()}
	}

	last := strings.TrimSpace(token.String())
	if last != "" {
		tokens = append(tokens, last)
	}
	return tokens, nil
}

// parseApplicationList parses an application-list string into individual
// applications. It handles three forms: a bare extension ("123"), an XML
// application ("&app(args)"), and, when dialplan is DialplanInline, a
// comma-separated inline list ("app1:args1,app2:args2").
func parseApplicationList(s string, dialplan *DialplanType) (ApplicationList, error) {
	if dialplan != nil && *dialplan == DialplanInline {
		parts, err := originateSplit(s, ',')
		if err != nil {
			return nil, err
		}
		apps := make(ApplicationList, 0, len(parts))
		for _, part := range parts {
			name, args, ok := strings.Cut(part, ":")
			if !ok {
				return nil, &OriginateError{
					Kind:    OriginateErrParseError,
					Message: "invalid inline application: " + part,
				}
			}
			apps = append(apps, Application{Name: name, Args: args, HasArgs: true})
		}
		return apps, nil
	}

	if rest, ok := strings.CutPrefix(s, "&"); ok {
		body, ok := strings.CutSuffix(rest, ")")
		if !ok {
			return nil, &OriginateError{Kind: OriginateErrParseError, Message: "missing closing paren"}
		}
		name, args, ok := strings.Cut(body, "(")
		if !ok {
			return nil, &OriginateError{Kind: OriginateErrParseError, Message: "missing opening paren"}
		}
		if args == "" {
			return ApplicationList{{Name: name}}, nil
		}
		return ApplicationList{{Name: name, Args: args, HasArgs: true}}, nil
	}

	return ApplicationList{{Name: s}}, nil
}
