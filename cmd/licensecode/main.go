// Command licensecode generates and inspects license display codes.
//
// Usage:
//
//	licensecode generate -product <id> -consumer <id>
//	licensecode parse <code>
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"licensegate/internal/license"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "generate":
		generate(os.Args[2:])
	case "parse":
		parse(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  licensecode generate -product <id> -consumer <id> [-date YYYY-MM]")
	fmt.Fprintln(os.Stderr, "  licensecode parse <code>")
}

func generate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	productID := fs.String("product", "", "product identifier")
	consumerID := fs.String("consumer", "", "consumer identifier")
	date := fs.String("date", "", "issuance year and month as YYYY-MM (default: now)")
	_ = fs.Parse(args)

	if *productID == "" || *consumerID == "" {
		fmt.Fprintln(os.Stderr, "generate: -product and -consumer are required")
		os.Exit(2)
	}

	createdAt := time.Now().UTC()
	if *date != "" {
		parsed, err := time.Parse("2006-01", *date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate: invalid date %q: %v\n", *date, err)
			os.Exit(2)
		}
		createdAt = parsed
	}

	fmt.Println(license.GenerateCode(*productID, *consumerID, createdAt))
}

func parse(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "parse: expected exactly one code")
		os.Exit(2)
	}

	components, err := license.ParseCode(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("product prefix:  %s\n", components.ProductPrefix)
	fmt.Printf("consumer prefix: %s\n", components.ConsumerPrefix)
	fmt.Printf("issued:          %04d-%02d\n", components.Year, components.Month)
	fmt.Printf("random groups:   %s %s %s\n", components.Random1, components.Random2, components.Random3)
}
