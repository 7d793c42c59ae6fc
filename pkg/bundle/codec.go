// Package bundle serializes batches of mutation entries for transport
// alongside commit bundles. The payload is a deterministic text envelope
// wrapped in a zstd frame.
package bundle

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/odvcencio/mutgraph/pkg/mutation"
)

const magic = "mutbundle 1"

// Encode serializes entries into a compressed bundle payload.
//
// The uncompressed envelope is:
//
//	mutbundle 1
//	count N
//
//	succ <hex>
//	pred <hex>
//	...
//	split <hex>
//	...
//	op <name>
//	user <name>
//	date <unixtime> <tzoffset>
//	extra <quoted-key> <quoted-value>
//	...
//	(blank line between entries)
func Encode(entries []*mutation.Entry) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n", magic)
	fmt.Fprintf(&buf, "count %d\n", len(entries))
	for _, entry := range entries {
		buf.WriteByte('\n')
		fmt.Fprintf(&buf, "succ %s\n", entry.Succ)
		for _, pred := range entry.Preds {
			fmt.Fprintf(&buf, "pred %s\n", pred)
		}
		for _, sibling := range entry.Split {
			fmt.Fprintf(&buf, "split %s\n", sibling)
		}
		if entry.Op != "" {
			fmt.Fprintf(&buf, "op %s\n", entry.Op)
		}
		if entry.User != "" {
			fmt.Fprintf(&buf, "user %s\n", entry.User)
		}
		fmt.Fprintf(&buf, "date %d %d\n", entry.Time, entry.Tz)
		for _, key := range sortedKeys(entry.Extra) {
			fmt.Fprintf(&buf, "extra %s %s\n",
				strconv.Quote(key), strconv.Quote(entry.Extra[key]))
		}
	}
	return compressFrame(buf.Bytes())
}

// Decode deserializes a bundle payload produced by Encode.
func Decode(data []byte) ([]*mutation.Entry, error) {
	raw, err := decompressFrame(data)
	if err != nil {
		return nil, fmt.Errorf("decode mutation bundle: %w", err)
	}

	lines := strings.Split(string(raw), "\n")
	if len(lines) < 2 || lines[0] != magic {
		return nil, fmt.Errorf("decode mutation bundle: bad magic")
	}
	countStr, ok := strings.CutPrefix(lines[1], "count ")
	if !ok {
		return nil, fmt.Errorf("decode mutation bundle: missing count")
	}
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return nil, fmt.Errorf("decode mutation bundle: bad count %q", countStr)
	}

	var entries []*mutation.Entry
	var entry *mutation.Entry
	for _, line := range lines[2:] {
		if line == "" {
			if entry != nil {
				entries = append(entries, entry)
				entry = nil
			}
			continue
		}
		if entry == nil {
			entry = &mutation.Entry{}
		}
		key, val, _ := strings.Cut(line, " ")
		switch key {
		case "succ":
			entry.Succ = mutation.Node(val)
		case "pred":
			entry.Preds = append(entry.Preds, mutation.Node(val))
		case "split":
			entry.Split = append(entry.Split, mutation.Node(val))
		case "op":
			entry.Op = val
		case "user":
			entry.User = val
		case "date":
			tStr, tzStr, _ := strings.Cut(val, " ")
			if entry.Time, err = strconv.ParseInt(tStr, 10, 64); err != nil {
				return nil, fmt.Errorf("decode mutation bundle: bad date %q", val)
			}
			if entry.Tz, err = strconv.Atoi(tzStr); err != nil {
				return nil, fmt.Errorf("decode mutation bundle: bad date %q", val)
			}
		case "extra":
			k, v, err := parseExtraLine(val)
			if err != nil {
				return nil, err
			}
			if entry.Extra == nil {
				entry.Extra = make(map[string]string)
			}
			entry.Extra[k] = v
		default:
			return nil, fmt.Errorf("decode mutation bundle: unknown field %q", key)
		}
	}
	if entry != nil {
		entries = append(entries, entry)
	}
	if len(entries) != count {
		return nil, fmt.Errorf("decode mutation bundle: entry count mismatch (header=%d, actual=%d)", count, len(entries))
	}
	return entries, nil
}

// Unbundle decodes a bundle payload and records its entries into the durable
// store. Entries whose successor is already recorded are skipped, so
// unbundling the same payload twice leaves the store unchanged.
func Unbundle(store mutation.Store, data []byte) (int, error) {
	entries, err := Decode(data)
	if err != nil {
		return 0, err
	}
	return mutation.RecordEntries(store, entries, true)
}

// Bundle collects the mutation history relevant to nodes and encodes it.
func Bundle(store mutation.Store, nodes []mutation.Node) ([]byte, error) {
	entries, err := mutation.EntriesForNodes(store, nodes)
	if err != nil {
		return nil, err
	}
	return Encode(entries)
}

func parseExtraLine(val string) (string, string, error) {
	// Two quoted strings separated by a space. The key cannot contain an
	// unescaped quote-space-quote boundary ambiguity because both sides are
	// strconv-quoted.
	sep := strings.Index(val, `" "`)
	if sep < 0 {
		return "", "", fmt.Errorf("decode mutation bundle: bad extra line %q", val)
	}
	key, err := strconv.Unquote(val[:sep+1])
	if err != nil {
		return "", "", fmt.Errorf("decode mutation bundle: bad extra key in %q", val)
	}
	value, err := strconv.Unquote(val[sep+2:])
	if err != nil {
		return "", "", fmt.Errorf("decode mutation bundle: bad extra value in %q", val)
	}
	return key, value, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
