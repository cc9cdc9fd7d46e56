package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"

	"termchat/repositories"
)

// Dumps the message log of a stopped server. Run against a live database
// directory and badger will refuse the lock, which is the right call.
func main() {
	dbPath := flag.String("db", "/tmp/termchat/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	limit := flag.Int("limit", 0, "Max rows to print (0 = all)")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Timestamp", "Sender", "Recipient", "Lang", "Body"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			if *limit > 0 && rows == *limit {
				break
			}
			item := it.Item()

			err := item.Value(func(v []byte) error {
				entry, err := repositories.DecodeEntry(v)
				if err != nil {
					// Keep scanning: one corrupt value should not hide the rest.
					fmt.Printf("Error decoding key %s: %v\n", string(item.Key()), err)
					return nil
				}

				message := entry.ToMessage()
				table.Append([]string{
					string(item.Key()),
					message.Kind.String(),
					entry.At.Format("2006-01-02 15:04:05"),
					entry.Sender,
					entry.Recipient,
					entry.Lang,
					entry.Body,
				})
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error while scanning: ", err)
	}

	table.Render()
	fmt.Printf("\n%d message(s)\n", rows)
}
