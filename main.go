package main

import (
	"os"

	"ccutils/internal/ccutils"
)

func main() {
	os.Exit(ccutils.Main())
}
