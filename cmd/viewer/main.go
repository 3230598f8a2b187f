// Command viewer dumps the chatroom store as tables without stopping the
// server: the database is opened read-only with the lock guard bypassed.
package main

import (
	"chatroom/repositories"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "/tmp/chatroom/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg: or usr:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	color.New(color.BgBlack, color.FgGreen).Printf("  ====== chatroom store [%s] ======\n", *prefix)

	switch {
	case strings.HasPrefix(*prefix, "usr:"):
		err = renderParticipants(db, *prefix)
	default:
		err = renderMessages(db, *prefix)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func renderParticipants(db *badger.DB, prefix string) error {
	table := newTable("Key", "Name", "Last Seen")

	err := scan(db, prefix, func(key string, val []byte) error {
		participant, err := repositories.DecodeParticipant(val)
		if err != nil {
			fmt.Printf("Error decoding key %s: %v\n", key, err)
			return nil
		}
		table.Append([]string{key, participant.Name, participant.LastSeenAt.Format("15:04:05")})
		return nil
	})
	if err != nil {
		return err
	}

	table.Render()
	return nil
}

func renderMessages(db *badger.DB, prefix string) error {
	table := newTable("Key", "Kind", "Timestamp", "From", "To", "Text")

	err := scan(db, prefix, func(key string, val []byte) error {
		id := strings.TrimPrefix(key, "msg:")
		message, err := repositories.DecodeMessage(id, val)
		if err != nil {
			fmt.Printf("Error decoding key %s: %v\n", key, err)
			return nil
		}

		text := message.Text
		if len(text) > 40 {
			text = text[:40] + "..."
		}
		table.Append([]string{
			key,
			strings.ToUpper(string(message.Kind)),
			message.CreatedAt.Format("15:04:05"),
			message.From,
			message.To,
			text,
		})
		return nil
	})
	if err != nil {
		return err
	}

	table.Render()
	return nil
}

func scan(db *badger.DB, prefix string, fn func(key string, val []byte) error) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				return fn(string(item.Key()), v)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func newTable(headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
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
	return table
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
