package notify

import "strings"

// FormatPhoneNumber 把本地号码转成国际格式，无法识别的号码原样返回
//
//	254712345678 -> +254712345678
//	0712345678   -> +254712345678
//	712345678    -> +254712345678
func FormatPhoneNumber(phone, countryCode string) string {
	if countryCode == "" {
		countryCode = "254"
	}
	switch {
	case strings.HasPrefix(phone, countryCode):
		return "+" + phone
	case strings.HasPrefix(phone, "0"):
		return "+" + countryCode + phone[1:]
	case strings.HasPrefix(phone, "7"), strings.HasPrefix(phone, "1"):
		return "+" + countryCode + phone
	}
	return phone
}
