package session

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys double as the English text.
const (
	msgScanUser          = "Please scan a user"
	msgScanUserFirst     = "Please scan a user first"
	msgCancelled         = "Operation cancelled. Please scan a user"
	msgReturnArmed       = "Return mode active, please scan a tool"
	msgReturnExpired     = "Return mode expired, please scan a user"
	msgUserFound         = "User recognised: %s, %s"
	msgUserNotFound      = "User not found: %s"
	msgToolFound         = "Tool recognised: %s, %s"
	msgToolNotFound      = "Tool not found: %s"
	msgChooseDuration    = "Scan a duration:"
	msgDurationChoice    = "dur%d: %d day(s), until %s"
	msgReservationSaved  = "Reservation saved"
	msgReservationFailed = "Reservation failed"
	msgReturnDone        = "Return completed for %s"
	msgReturnFailed      = "Return failed"
	msgFailureReason     = "%s: %s"
	msgInvalidScan       = "Invalid scan or wrong order: %s"
	msgInfoTool          = "Tool: %s"
	msgInfoCode          = "QR code: %s"
	msgInfoStatus        = "Status: %s"
	msgStatusReserved    = "Reserved"
	msgStatusFree        = "Free"
	msgInfoActive        = "Currently reserved by %s"
	msgInfoUpcoming      = "Next reservations:"
	msgInfoUpcomingLine  = "%d. %s: %s"
)

var germanMessages = map[string]string{
	msgScanUser:          "Bitte Benutzer scannen",
	msgScanUserFirst:     "Bitte zuerst Benutzer scannen",
	msgCancelled:         "Vorgang abgebrochen. Bitte Benutzer scannen",
	msgReturnArmed:       "Rückgabemodus aktiviert, bitte Werkzeug scannen",
	msgReturnExpired:     "Rückgabemodus abgelaufen, bitte Benutzer scannen",
	msgUserFound:         "Benutzer erkannt: %s, %s",
	msgUserNotFound:      "Benutzer nicht gefunden: %s",
	msgToolFound:         "Werkzeug erkannt: %s, %s",
	msgToolNotFound:      "Werkzeug nicht gefunden: %s",
	msgChooseDuration:    "Dauer scannen:",
	msgDurationChoice:    "dur%d: %d Tag(e), bis %s",
	msgReservationSaved:  "Reservation gespeichert",
	msgReservationFailed: "Reservation fehlgeschlagen",
	msgReturnDone:        "Rückgabe abgeschlossen für %s",
	msgReturnFailed:      "Rückgabe fehlgeschlagen",
	msgFailureReason:     "%s: %s",
	msgInvalidScan:       "Ungültiger Scan oder falsche Reihenfolge: %s",
	msgInfoTool:          "Werkzeug: %s",
	msgInfoCode:          "QR-Code: %s",
	msgInfoStatus:        "Status: %s",
	msgStatusReserved:    "Reserviert",
	msgStatusFree:        "Frei",
	msgInfoActive:        "Aktuell reserviert von %s",
	msgInfoUpcoming:      "Nächste Reservationen:",
	msgInfoUpcomingLine:  "%d. %s: %s",
}

var messageCatalog = buildCatalog()

func buildCatalog() catalog.Catalog {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range germanMessages {
		if err := builder.SetString(language.German, key, text); err != nil {
			panic(err)
		}
		if err := builder.SetString(language.English, key, key); err != nil {
			panic(err)
		}
	}
	return builder
}

// ResolveLocale maps a configured locale such as "de", "de-CH" or "en" onto a
// supported language, defaulting to German.
func ResolveLocale(locale string) language.Tag {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return language.German
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.German
	}
	if base, _ := tag.Base(); base.String() == "en" {
		return language.English
	}
	return language.German
}

// NewPrinter returns a printer over the station catalog.
func NewPrinter(locale string) *message.Printer {
	return message.NewPrinter(ResolveLocale(locale), message.Catalog(messageCatalog))
}
