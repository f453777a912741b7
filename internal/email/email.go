// Package email formats studio notifications and delivers them over SMTP.
package email

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/evcraddock/luxury-estates/internal/inquiry"
	"github.com/evcraddock/luxury-estates/internal/property"
)

// InquirySubject is the subject line of an inquiry notification.
func InquirySubject(p *property.Property) string {
	return "New inquiry: " + p.Title
}

// FormatInquiry builds the plain-text notification for an inquiry on p.
func FormatInquiry(p *property.Property, inq *inquiry.Inquiry, baseURL string) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "New inquiry about %s\n\n", p.Title)

	var details []string
	if p.Location != "" {
		details = append(details, p.Location)
	}
	details = append(details, "$"+FormatPrice(p.Price))
	if p.Beds > 0 {
		details = append(details, fmt.Sprintf("%d bed", p.Beds))
	}
	if p.Baths > 0 {
		details = append(details, fmt.Sprintf("%g bath", p.Baths))
	}
	if p.Sqft > 0 {
		details = append(details, fmt.Sprintf("%s sqft", FormatPrice(p.Sqft)))
	}
	fmt.Fprintf(&buf, "   %s\n", strings.Join(details, " | "))
	fmt.Fprintf(&buf, "   %s/property/%s\n\n", strings.TrimRight(baseURL, "/"), p.ID)

	fmt.Fprintf(&buf, "From: %s <%s>\n", inq.Name, inq.Email)
	if inq.Phone != "" {
		fmt.Fprintf(&buf, "Phone: %s\n", inq.Phone)
	}
	fmt.Fprintf(&buf, "\n%s\n", inq.Message)

	return buf.String()
}

// FormatPrice renders n with thousands separators.
func FormatPrice[N ~int | ~int64](n N) string {
	digits := strconv.FormatInt(int64(n), 10)
	sign := ""
	if digits[0] == '-' {
		sign, digits = "-", digits[1:]
	}
	var b strings.Builder
	b.WriteString(sign)
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
