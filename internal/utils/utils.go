// Package utils содержит утилитарные функции, используемые в разных частях приложения
package utils

import (
	"fmt"
	"math"
	"time"
)

// FormatDuration форматирует time.Duration в формат HH:MM:SS
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatClock форматирует позицию трека: MM:SS, а для длинных записей HH:MM:SS
func FormatClock(d time.Duration) string {
	if d >= time.Hour {
		return FormatDuration(d)
	}
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// FormatPercent форматирует долю от 0 до 1 в проценты
func FormatPercent(ratio float64) string {
	if math.IsNaN(ratio) || ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return fmt.Sprintf("%d%%", int(math.Round(ratio*100)))
}

// TruncateString обрезает строку до указанной длины в символах, добавляя "..." если строка длиннее
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// ValueOrDash возвращает "-" для пустой строки
func ValueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
