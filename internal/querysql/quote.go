package querysql

import "strings"

// quoteIdentifier returns a double-quoted identifier when the name is not a
// plain SQL identifier or is a reserved word. Dotted selectors are quoted
// as a single column name.
func quoteIdentifier(name string) string {
	if needsQuoting(name) {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return name
}

func needsQuoting(name string) bool {
	if len(name) == 0 {
		return true
	}

	c := name[0]
	if !isLetter(c) && c != '_' {
		return true
	}
	for i := 1; i < len(name); i++ {
		c = name[i]
		if !isLetter(c) && !isDigit(c) && c != '_' {
			return true
		}
	}

	_, reserved := reservedWords[strings.ToUpper(name)]
	return reserved
}

var reservedWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		SELECT FROM WHERE AND OR NOT NULL TRUE FALSE INSERT UPDATE DELETE CREATE
		DROP ALTER TABLE INDEX JOIN LEFT RIGHT INNER OUTER ON AS IN IS LIKE
		BETWEEN EXISTS CASE WHEN THEN ELSE END ORDER BY GROUP HAVING LIMIT
		OFFSET UNION EXCEPT INTERSECT ALL DISTINCT VALUES SET INTO PRIMARY KEY
		FOREIGN REFERENCES CONSTRAINT DEFAULT CHECK UNIQUE ASC DESC ESCAPE
		COLLATE CAST DATE TIME TIMESTAMP GLOB MATCH REGEXP`) {
		reservedWords[w] = struct{}{}
	}
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
