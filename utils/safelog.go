// utils/safelog.go
// ============================================================================
// SAFE LOGGING - masks personal and financial data in production
// ============================================================================

package utils

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================================
// CONFIGURATION
// ============================================================================

var (
	// IsProduction turns masking on. main overrides it from the loaded config.
	IsProduction = os.Getenv("GIN_MODE") == "release" ||
		os.Getenv("ENVIRONMENT") == "production"

	LogLevel = getLogLevel()
)

const (
	LogLevelDebug = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func getLogLevel() int {
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// ============================================================================
// MASKING PATTERNS
// ============================================================================

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	// E.164-ish numbers as accepted at signup
	phoneRegex = regexp.MustCompile(`\+\d{11,13}`)

	amountWithCurrencyRegex = regexp.MustCompile(`(R\$|BRL)\s*\d+([.,]\d{1,2})?`)

	bcryptRegex = regexp.MustCompile(`\$2[aby]\$\d{2}\$[./A-Za-z0-9]{53}`)

	uuidRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)

// ============================================================================
// MASKING
// ============================================================================

// MaskString hides emails, phone numbers, amounts, password hashes and ids.
func MaskString(input string) string {
	if !IsProduction {
		return input
	}

	result := emailRegex.ReplaceAllLiteralString(input, "***@***.***")
	result = phoneRegex.ReplaceAllStringFunc(result, MaskPhone)
	result = amountWithCurrencyRegex.ReplaceAllLiteralString(result, "R$ ***")
	result = bcryptRegex.ReplaceAllLiteralString(result, "$2*$**$***")
	result = uuidRegex.ReplaceAllStringFunc(result, MaskID)
	return result
}

func MaskAmount(amount decimal.Decimal) string {
	if IsProduction {
		return "***"
	}
	return amount.StringFixed(2)
}

// MaskID keeps the first 8 characters of an id.
func MaskID(id string) string {
	if !IsProduction {
		return id
	}
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "..."
}

func MaskEmail(email string) string {
	if !IsProduction {
		return email
	}
	return "***@***.***"
}

// MaskPhone keeps the country prefix and the last two digits.
func MaskPhone(phone string) string {
	if !IsProduction {
		return phone
	}
	if len(phone) < 6 {
		return "***"
	}
	return phone[:3] + strings.Repeat("*", len(phone)-5) + phone[len(phone)-2:]
}

// ============================================================================
// LOGGING
// ============================================================================

func SafeLog(format string, args ...interface{}) {
	log.Print(MaskString(fmt.Sprintf(format, args...)))
}

func SafeDebug(format string, args ...interface{}) {
	if LogLevel > LogLevelDebug {
		return
	}
	log.Printf("[DEBUG] %s", MaskString(fmt.Sprintf(format, args...)))
}

func SafeInfo(format string, args ...interface{}) {
	if LogLevel > LogLevelInfo {
		return
	}
	log.Printf("[INFO] %s", MaskString(fmt.Sprintf(format, args...)))
}

func SafeWarn(format string, args ...interface{}) {
	if LogLevel > LogLevelWarn {
		return
	}
	log.Printf("[WARN] %s", MaskString(fmt.Sprintf(format, args...)))
}

func SafeError(format string, args ...interface{}) {
	log.Printf("[ERROR] %s", MaskString(fmt.Sprintf(format, args...)))
}

// ============================================================================
// DOMAIN LOGGING
// ============================================================================

// LogLedgerAction records a write on one of the ledger tables.
func LogLedgerAction(action, entity string, entityID, userID int64) {
	log.Printf("[Ledger] %s %s #%d - User: %d", action, entity, entityID, userID)
}

func LogAuthAction(action string, email string, success bool) {
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	log.Printf("[Auth] %s - Email: %s Status: %s", action, MaskEmail(email), status)
}

func LogResetAction(action string, phone string, resetID string) {
	log.Printf("[Reset] %s - Phone: %s Ticket: %s", action, MaskPhone(phone), MaskID(resetID))
}

func LogAPIRequest(method, path, requestID string, userID int64, statusCode int, duration string) {
	log.Printf("[API] %s %s - Req: %s User: %d Status: %d Duration: %s",
		method,
		MaskString(path),
		MaskID(requestID),
		userID,
		statusCode,
		duration)
}

func LogWebSocket(action string, userID int64) {
	log.Printf("[WS] %s - User: %d", action, userID)
}

func GetEnvMode() string {
	if IsProduction {
		return "production"
	}
	return "development"
}

func LogStartup(appName, version, port, driver string) {
	log.Printf("🚀 %s v%s starting...", appName, version)
	log.Printf("   Mode: %s", GetEnvMode())
	log.Printf("   Port: %s", port)
	log.Printf("   Database: %s", driver)
	log.Printf("   Log Level: %d", LogLevel)
	if IsProduction {
		log.Printf("   ⚠️  Production mode: sensitive data will be masked in logs")
	}
}
