package bookingbrain

import "strings"

// roomType is the minimal shape the room-resolution algorithm needs;
// kept independent of storage.RoomType so this file has no import-cycle
// exposure to the persistence layer.
type roomType struct {
	Code string
	Name string
}

// familyKeywords are room-family names a guest might say instead of an
// exact code or name, per spec.md §4.9.
var familyKeywords = []string{"DELUXE", "STANDARD", "PRESIDENTIAL"}

// ResolveRoom matches a spoken room description against inventory in
// order: exact code, substring of name, family keyword.
func ResolveRoom(query string, inventory []roomType) (roomType, bool) {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return roomType{}, false
	}

	for _, rt := range inventory {
		if strings.EqualFold(rt.Code, q) {
			return rt, true
		}
	}
	for _, rt := range inventory {
		if strings.Contains(strings.ToUpper(rt.Name), q) || strings.Contains(q, strings.ToUpper(rt.Name)) {
			return rt, true
		}
	}
	for _, kw := range familyKeywords {
		if strings.Contains(q, kw) {
			for _, rt := range inventory {
				if strings.Contains(strings.ToUpper(rt.Code), kw) || strings.Contains(strings.ToUpper(rt.Name), kw) {
					return rt, true
				}
			}
		}
	}
	return roomType{}, false
}
