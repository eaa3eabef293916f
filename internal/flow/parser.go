package flow

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// tickerRe is the validity pattern for ticker symbols. Purely numeric
// strings pass the pattern but are rejected separately; a ticker must carry
// at least one letter.
var tickerRe = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// reservedTickers are column values that look like symbols but are really
// classification text bleeding out of misaligned legacy rows.
var reservedTickers = map[string]struct{}{
	"ASK": {}, "BID": {}, "SWEEP": {}, "UNUSUAL": {}, "HIGHLY": {},
	"CALL": {}, "PUT": {}, "CALLS": {}, "PUTS": {},
	"ABOVE": {}, "BELOW": {}, "MID": {}, "NA": {}, "NULL": {}, "TRUE": {}, "FALSE": {},
}

// maxPreallocRows caps the pre-sizing estimate for record slices. A
// pathological input falls back to dynamic growth instead of a huge
// allocation.
const maxPreallocRows = 1 << 20

// layout identifies which of the known snapshot export shapes a file or
// row uses.
type layout int

const (
	layoutClean layout = iota
	layoutLegacyStandard
	layoutLegacyAlternative
)

func (l layout) String() string {
	switch l {
	case layoutClean:
		return "clean"
	case layoutLegacyStandard:
		return "legacy_standard"
	case layoutLegacyAlternative:
		return "legacy_alternative"
	default:
		return "unknown"
	}
}

// fieldIndexes maps logical record fields to column positions for one
// layout. -1 marks a field the layout does not carry.
type fieldIndexes struct {
	ticker       int
	strike       int
	expiry       int
	optionType   int
	volume       int
	premium      int
	openInterest int
	bidAskSpread int
	timestamp    int
	sweepType    int
	sourceFile   int
}

var layoutIndexes = map[layout]fieldIndexes{
	// Explicit header: ticker,strike,expiry,optionType,volume,premium,
	// openInterest,bidAskSpread,timestamp,sweepType[,sourceFile]
	layoutClean: {
		ticker: 0, strike: 1, expiry: 2, optionType: 3, volume: 4,
		premium: 5, openInterest: 6, bidAskSpread: 7, timestamp: 8,
		sweepType: 9, sourceFile: 10,
	},
	// Chat-export rows with leading avatar/username/bot-text columns.
	layoutLegacyStandard: {
		ticker: 7, strike: 8, expiry: 9, optionType: 10, volume: 11,
		premium: 12, openInterest: 13, bidAskSpread: 14, timestamp: 15,
		sweepType: 16, sourceFile: -1,
	},
	// Same export with the leading columns empty and a literal "[" marker
	// at column 4; every data field shifts left by two.
	layoutLegacyAlternative: {
		ticker: 5, strike: 6, expiry: 7, optionType: 8, volume: 9,
		premium: 10, openInterest: 11, bidAskSpread: 12, timestamp: 13,
		sweepType: 14, sourceFile: -1,
	},
}

// Parser turns raw snapshot CSV text into typed trade records. It is pure
// apart from logging: identical input always yields identical output for a
// fixed reference time.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger falls back to slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With(slog.String("component", "parser"))}
}

// ParseRecords extracts options trade records from csvText. sourceFile is
// recorded as provenance on every record. Rows failing validation are
// skipped with a warning; expired contracts (relative to now) are dropped
// and never stored.
func (p *Parser) ParseRecords(csvText, sourceFile string, now time.Time) []TradeRecord {
	lines := splitLines(csvText)
	records := make([]TradeRecord, 0, preallocEstimate(len(lines)))

	fileLayout, start := detectLayout(lines)
	skipped := 0

	for i := start; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		record, ok := p.parseRow(line, fileLayout, sourceFile, now, i)
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}

	p.logger.Debug("parsed snapshot file",
		slog.String("file", sourceFile),
		slog.String("layout", fileLayout.String()),
		slog.Int("records", len(records)),
		slog.Int("skipped", skipped))

	return records
}

// parseRow extracts a single record. Any panic during field extraction is
// contained here so one malformed row cannot fail the whole file.
func (p *Parser) parseRow(line string, fileLayout layout, sourceFile string, now time.Time, lineNo int) (record TradeRecord, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("row parse panic recovered",
				slog.String("file", sourceFile),
				slog.Int("line", lineNo),
				slog.Any("panic", r))
			ok = false
		}
	}()

	fields := SplitLine(line)

	rowLayout := fileLayout
	if fileLayout != layoutClean {
		rowLayout = detectLegacyOffset(fields)
	}
	idx := layoutIndexes[rowLayout]

	maxIdx := idx.sweepType
	if idx.timestamp > maxIdx {
		maxIdx = idx.timestamp
	}
	if len(fields) <= maxIdx {
		return TradeRecord{}, false
	}

	ticker := strings.ToUpper(strings.TrimSpace(field(fields, idx.ticker)))
	if !ValidTicker(ticker) {
		return TradeRecord{}, false
	}

	strike := parseNumber(field(fields, idx.strike))
	if strike <= 0 {
		p.warnRow(sourceFile, lineNo, "invalid strike")
		return TradeRecord{}, false
	}

	expiry := strings.TrimSpace(field(fields, idx.expiry))
	if expiry == "" {
		p.warnRow(sourceFile, lineNo, "missing expiry")
		return TradeRecord{}, false
	}
	if IsExpired(expiry, now) {
		return TradeRecord{}, false
	}

	optionType := normalizeOptionType(field(fields, idx.optionType))
	if !optionType.Valid() {
		p.warnRow(sourceFile, lineNo, "unrecognized option type")
		return TradeRecord{}, false
	}

	volume := parseCount(field(fields, idx.volume))
	if volume <= 0 {
		p.warnRow(sourceFile, lineNo, "non-positive volume")
		return TradeRecord{}, false
	}

	record = TradeRecord{
		Ticker:       ticker,
		Strike:       strike,
		Expiry:       expiry,
		OptionType:   optionType,
		Volume:       volume,
		Premium:      strings.TrimSpace(field(fields, idx.premium)),
		OpenInterest: parseCount(field(fields, idx.openInterest)),
		BidAskSpread: parseNumber(field(fields, idx.bidAskSpread)),
		Timestamp:    strings.TrimSpace(field(fields, idx.timestamp)),
		SweepType:    strings.TrimSpace(field(fields, idx.sweepType)),
		SourceFile:   sourceFile,
	}
	if record.SourceFile == "" && idx.sourceFile >= 0 {
		record.SourceFile = strings.TrimSpace(field(fields, idx.sourceFile))
	}
	return record, true
}

// ParseDarkPoolRecords extracts dark-pool prints from csvText. The dark-pool
// export only ever uses the headered layout: ticker,quantity,price,
// totalValue,timestamp[,sourceFile].
func (p *Parser) ParseDarkPoolRecords(csvText, sourceFile string) []DarkPoolRecord {
	lines := splitLines(csvText)
	records := make([]DarkPoolRecord, 0, preallocEstimate(len(lines)))

	start := 0
	if len(lines) > 0 {
		header := strings.ToLower(lines[0])
		if strings.Contains(header, "ticker") && strings.Contains(header, "quantity") {
			start = 1
		}
	}

	for i := start; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		fields := SplitLine(line)
		if len(fields) < 5 {
			continue
		}

		ticker := strings.ToUpper(strings.TrimSpace(fields[0]))
		if !ValidTicker(ticker) {
			continue
		}
		quantity := parseCount(fields[1])
		price := parseNumber(fields[2])
		if quantity <= 0 || price <= 0 {
			p.warnRow(sourceFile, i, "invalid dark pool quantity or price")
			continue
		}

		record := DarkPoolRecord{
			Ticker:     ticker,
			Quantity:   quantity,
			Price:      price,
			TotalValue: strings.TrimSpace(fields[3]),
			Timestamp:  strings.TrimSpace(fields[4]),
			SourceFile: sourceFile,
		}
		if record.SourceFile == "" && len(fields) > 5 {
			record.SourceFile = strings.TrimSpace(fields[5])
		}
		records = append(records, record)
	}

	return records
}

func (p *Parser) warnRow(sourceFile string, lineNo int, reason string) {
	p.logger.Warn("skipping malformed row",
		slog.String("file", sourceFile),
		slog.Int("line", lineNo),
		slog.String("reason", reason))
}

// ValidTicker reports whether s is an acceptable ticker symbol: matches the
// validity pattern, contains at least one letter, and is not a reserved
// classification keyword.
func ValidTicker(s string) bool {
	if !tickerRe.MatchString(s) {
		return false
	}
	if _, reserved := reservedTickers[s]; reserved {
		return false
	}
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}

// detectLayout inspects the first non-blank line: an explicit
// ticker/strike/expiry header marks the clean layout, anything else is the
// legacy chat-export shape whose offset is decided per row.
func detectLayout(lines []string) (layout, int) {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if strings.Contains(lower, "ticker") && strings.Contains(lower, "strike") && strings.Contains(lower, "expiry") {
			return layoutClean, i + 1
		}
		return layoutLegacyStandard, i
	}
	return layoutClean, len(lines)
}

// detectLegacyOffset distinguishes the two legacy sub-layouts by field
// values, never by file naming: the alternative offset has its leading four
// columns empty and a literal "[" marker at column 4.
func detectLegacyOffset(fields []string) layout {
	if len(fields) > 4 && strings.TrimSpace(fields[4]) == "[" &&
		strings.TrimSpace(fields[0]) == "" && strings.TrimSpace(fields[1]) == "" {
		return layoutLegacyAlternative
	}
	return layoutLegacyStandard
}

func field(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

func normalizeOptionType(s string) OptionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "calls", "c":
		return Call
	case "put", "puts", "p":
		return Put
	default:
		return OptionType("")
	}
}

// parseNumber reads a float that may carry comma thousands separators.
func parseNumber(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseCount reads a non-negative integer that may carry comma separators.
func parseCount(s string) int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some exports write counts as "1.0e3" style floats.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return v
}

// ParsePremium converts a currency-formatted premium string such as "$1.2K"
// or "$3.4M" to its numeric value.
func ParsePremium(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		multiplier = 1e3
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		multiplier = 1e6
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "B"), strings.HasSuffix(s, "b"):
		multiplier = 1e9
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v * multiplier
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// preallocEstimate bounds slice pre-sizing; absurd estimates degrade to
// dynamic growth rather than failing the allocation.
func preallocEstimate(lines int) int {
	if lines < 0 || lines > maxPreallocRows {
		return 0
	}
	return lines
}
