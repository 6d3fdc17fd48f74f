// Command chromedb-scan is a minimal demonstration driver for
// pkg/scanner: given a directory holding a Chromium LevelDB database, it
// prints one line per record. The command surface itself is out of scope
// for this scanner (see spec §1); this binary exists only to exercise the
// library end to end.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"chromedbscan.dev/chromedbscan/pkg/scanner"
)

func main() {
	verbose := flag.Bool("v", false, "log corrupt/skipped files to stderr")
	skipCorrupt := flag.Bool("skip-corrupt", false, "continue scanning after a corrupt file instead of stopping")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: chromedb-scan [-v] [-skip-corrupt] <leveldb-dir>")
		os.Exit(2)
	}
	dir := flag.Arg(0)

	var opts []scanner.Option
	if *verbose {
		opts = append(opts, scanner.WithLogger(log.New(os.Stderr, "chromedb-scan: ", 0)))
	}
	if *skipCorrupt {
		opts = append(opts, scanner.WithSkipCorruptFiles(true))
	}

	if err := run(dir, opts); err != nil {
		fmt.Fprintln(os.Stderr, "chromedb-scan:", err)
		os.Exit(1)
	}
}

func run(dir string, opts []scanner.Option) error {
	it, err := scanner.Scan(dir, opts...)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		rec := it.Record()
		fmt.Printf("origin=%s\tseq=%d\tstate=%s\tkey=%q\tvalue=%q\n",
			rec.Origin, rec.Seq, rec.State, rec.UserKey, rec.Value)
	}
	return it.Err()
}
