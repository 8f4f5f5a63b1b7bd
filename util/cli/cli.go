package cli

import "fmt"

func Printlnf(pat string, args ...any) {
	fmt.Printf(pat+"\n", args...)
}

func ErrorPrintlnf(pat string, args ...any) {
	fmt.Printf("[ERROR] "+pat+"\n", args...)
}
