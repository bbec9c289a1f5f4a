package detect

import (
	"strings"
	"unicode"

	"eksi-quake-watch/internal/domain"
)

// Match проверяет заголовок на шаблон «[день] [месяц] [год] [провинция]».
// Совпадение засчитывается только если все четыре компонента найдены;
// частичные совпадения не возвращаются. При нескольких кандидатах в одном
// заголовке берётся первый слева: первая тройка дата-месяц-год и первая
// провинция. Функция чистая и безопасна для параллельных вызовов.
//
// Границы слов соблюдаются на уровне токенов: заголовок разбивается на
// максимальные последовательности букв и цифр, и токен сравнивается с
// лексиконом целиком. Regexp-класс \b здесь не годится: в Go он считает
// словными только ASCII-символы, и «şubatö» дал бы ложную границу.
func Match(title string) (domain.EarthquakeInfo, bool) {
	tokens := tokenize(title)
	if len(tokens) == 0 {
		return domain.EarthquakeInfo{}, false
	}

	day, month, monthName, year, ok := findDate(tokens)
	if !ok {
		return domain.EarthquakeInfo{}, false
	}

	province, ok := findProvince(tokens)
	if !ok {
		return domain.EarthquakeInfo{}, false
	}

	hasKeyword := findKeyword(tokens)
	confidence := domain.ConfidenceMedium
	if hasKeyword {
		confidence = domain.ConfidenceHigh
	}

	return domain.EarthquakeInfo{
		Day:        day,
		Month:      month,
		MonthName:  monthName,
		Year:       year,
		Province:   province,
		HasKeyword: hasKeyword,
		Confidence: confidence,
	}, true
}

// Key строит дедупликационный ключ события. Провинция приводится к
// ASCII-форме, чтобы «kahramanmaraş» и «kahramanmaras» давали один ключ.
func Key(info domain.EarthquakeInfo) domain.EventKey {
	return domain.EventKey{
		Day:      info.Day,
		Month:    info.Month,
		Year:     info.Year,
		Province: Fold(info.Province),
	}
}

// Fold убирает турецкие диакритики для сравнения и нормализации ключей.
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case 'ı':
			b.WriteRune('i')
		case 'ğ':
			b.WriteRune('g')
		case 'ü':
			b.WriteRune('u')
		case 'ş':
			b.WriteRune('s')
		case 'ö':
			b.WriteRune('o')
		case 'ç':
			b.WriteRune('c')
		case 'â':
			b.WriteRune('a')
		case '\u0307':
			// İ после ToLower оставляет комбинирующую точку, выбрасываем её
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// token — слово заголовка в нижнем регистре и его ASCII-форма.
type token struct {
	lower  string
	folded string
}

func tokenize(title string) []token {
	var tokens []token
	var current []rune
	flush := func() {
		if len(current) == 0 {
			return
		}
		raw := string(current)
		lower := strings.ToLower(raw)
		tokens = append(tokens, token{lower: lower, folded: Fold(lower)})
		current = current[:0]
	}
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\u0307' {
			current = append(current, r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// findDate ищет первую слева тройку «день месяц год».
func findDate(tokens []token) (day, month int, monthName string, year int, ok bool) {
	for i := 0; i+2 < len(tokens); i++ {
		d, dayOK := parseDay(tokens[i].lower)
		if !dayOK {
			continue
		}
		m, name, monthOK := lookupMonth(tokens[i+1])
		if !monthOK {
			continue
		}
		y, yearOK := parseYear(tokens[i+2].lower)
		if !yearOK {
			continue
		}
		return d, m, name, y, true
	}
	return 0, 0, "", 0, false
}

func parseDay(tok string) (int, bool) {
	if len(tok) == 0 || len(tok) > 2 || tok[0] == '0' {
		return 0, false
	}
	value := 0
	for i := 0; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return 0, false
		}
		value = value*10 + int(tok[i]-'0')
	}
	if value < 1 || value > 31 {
		return 0, false
	}
	return value, true
}

func parseYear(tok string) (int, bool) {
	if len(tok) != 4 || tok[0] != '2' || tok[1] != '0' {
		return 0, false
	}
	for i := 2; i < 4; i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return 0, false
		}
	}
	return 2000 + int(tok[2]-'0')*10 + int(tok[3]-'0'), true
}

func lookupMonth(tok token) (int, string, bool) {
	if num, found := months[tok.lower]; found {
		return num, tok.lower, true
	}
	if num, found := months[tok.folded]; found {
		return num, tok.folded, true
	}
	return 0, "", false
}

// findProvince возвращает первую провинцию по позиции в заголовке.
func findProvince(tokens []token) (string, bool) {
	for _, tok := range tokens {
		if _, found := provinceSet[tok.lower]; found {
			return tok.lower, true
		}
		if _, found := provinceSet[tok.folded]; found {
			return tok.folded, true
		}
	}
	return "", false
}

func findKeyword(tokens []token) bool {
	for _, tok := range tokens {
		if _, found := keywordSet[tok.lower]; found {
			return true
		}
		if _, found := keywordSet[tok.folded]; found {
			return true
		}
	}
	return false
}
