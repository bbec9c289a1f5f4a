package main

import (
	"bufio"
	"fmt"
	"os"

	"eksi-quake-watch/internal/usecase/detect"
)

// Утилита прогоняет заголовки через матчер без запуска монитора.
// Заголовки берутся из аргументов командной строки, либо построчно
// из stdin, если аргументов нет.
func main() {
	titles := os.Args[1:]
	if len(titles) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			titles = append(titles, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "чтение stdin: %v\n", err)
			os.Exit(1)
		}
	}
	if len(titles) == 0 {
		fmt.Fprintln(os.Stderr, "использование: checktitle <заголовок> [<заголовок> ...]")
		os.Exit(2)
	}

	matched := 0
	for _, title := range titles {
		info, ok := detect.Match(title)
		if !ok {
			fmt.Printf("— %q: не распознан\n", title)
			continue
		}
		matched++
		key := detect.Key(info)
		fmt.Printf("✓ %q\n", title)
		fmt.Printf("  дата: %d %s %d, провинция: %s, ключ: %s\n",
			info.Day, info.MonthName, info.Year, info.Province, key.String())
		fmt.Printf("  ключевое слово: %t, уверенность: %s\n", info.HasKeyword, info.Confidence)
	}
	fmt.Printf("распознано %d из %d\n", matched, len(titles))
}
