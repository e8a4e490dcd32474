package bookingbrain

// toMap/fromMap let BookingSlots ride through session.Store's generic
// map[string]any merge (client-echo-wins-only-when-non-empty), since the
// store can't import this package without an import cycle.

func toMap(s BookingSlots) map[string]any {
	m := make(map[string]any, 8)
	if s.RoomType != nil {
		m["roomType"] = *s.RoomType
	}
	if s.Adults != nil {
		m["adults"] = *s.Adults
	}
	if s.Children != nil {
		m["children"] = *s.Children
	}
	if s.CheckInDate != nil {
		m["checkInDate"] = *s.CheckInDate
	}
	if s.CheckOutDate != nil {
		m["checkOutDate"] = *s.CheckOutDate
	}
	if s.GuestName != nil {
		m["guestName"] = *s.GuestName
	}
	if s.Nights != nil {
		m["nights"] = *s.Nights
	}
	if s.TotalPrice != nil {
		m["totalPrice"] = *s.TotalPrice
	}
	return m
}

func fromMap(m map[string]any) BookingSlots {
	var s BookingSlots
	if v, ok := m["roomType"].(string); ok && v != "" {
		s.RoomType = &v
	}
	if v, ok := toInt(m["adults"]); ok {
		s.Adults = &v
	}
	if v, ok := toInt(m["children"]); ok {
		s.Children = &v
	}
	if v, ok := m["checkInDate"].(string); ok && v != "" {
		s.CheckInDate = &v
	}
	if v, ok := m["checkOutDate"].(string); ok && v != "" {
		s.CheckOutDate = &v
	}
	if v, ok := m["guestName"].(string); ok && v != "" {
		s.GuestName = &v
	}
	if v, ok := toInt(m["nights"]); ok {
		s.Nights = &v
	}
	if v, ok := m["totalPrice"].(float64); ok {
		s.TotalPrice = &v
	}
	return s
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// mergeNonEmpty overlays extracted onto base, with extracted winning only
// for fields it actually sets (mirrors session.Store.MergeSlots's
// client-echo-wins-only-when-non-empty rule, applied one level down to
// freshly extracted slots instead of a client echo).
func mergeNonEmpty(base, extracted BookingSlots) BookingSlots {
	out := base
	if extracted.RoomType != nil && *extracted.RoomType != "" {
		out.RoomType = extracted.RoomType
	}
	if extracted.Adults != nil {
		out.Adults = extracted.Adults
	}
	if extracted.Children != nil {
		out.Children = extracted.Children
	}
	if extracted.CheckInDate != nil && *extracted.CheckInDate != "" {
		out.CheckInDate = extracted.CheckInDate
	}
	if extracted.CheckOutDate != nil && *extracted.CheckOutDate != "" {
		out.CheckOutDate = extracted.CheckOutDate
	}
	if extracted.GuestName != nil && *extracted.GuestName != "" {
		out.GuestName = extracted.GuestName
	}
	if extracted.Nights != nil {
		out.Nights = extracted.Nights
	}
	if extracted.TotalPrice != nil {
		out.TotalPrice = extracted.TotalPrice
	}
	return out
}
