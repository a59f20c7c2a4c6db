// Package nnumber implements the bijection between U.S. N-Numbers and the
// ICAO mode-S hex block A00001..ADF7C7.
//
// Ported from the bucket-based arithmetic scheme described by Guillaume
// Michel (icao-nnumber_converter, GPLv3): https://github.com/guillaumemichel/icao-nnumber_converter
package nnumber

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	icaoCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ" // 24 letters, excludes I and O
	digitset    = "0123456789"
	charsetLen  = 24
	suffixSize  = 601
	bucket4     = 35
	bucket3     = 951
	bucket2     = 10111
	bucket1     = 101711
	icaoSize    = 6
)

// Allchars is the ICAO charset followed by the digits, in that order; used to
// validate NNumber input and to decode the final character of a tail number.
const Allchars = icaoCharset + digitset

// getSuffix is the inverse of suffixOffset: 0 -> "", k>0 -> one or two
// letters from icaoCharset.
func getSuffix(offset int) (string, error) {
	if offset == 0 {
		return "", nil
	}
	index := (offset - 1) / (charsetLen + 1)
	if index >= len(icaoCharset) {
		return "", fmt.Errorf("nnumber: get_suffix out of range")
	}
	first := icaoCharset[index]
	rem := (offset - 1) % (charsetLen + 1)
	if rem == 0 {
		return string(first), nil
	}
	return string(first) + string(icaoCharset[rem-1]), nil
}

// suffixOffset is the inverse of getSuffix.
func suffixOffset(offset string) (int, error) {
	n := len(offset)
	if n == 0 {
		return 0, nil
	}
	if n > 2 {
		return 0, fmt.Errorf("nnumber: suffix_offset too long")
	}
	for _, c := range offset {
		if !strings.ContainsRune(Allchars, c) {
			return 0, fmt.Errorf("nnumber: suffix_offset invalid char")
		}
	}
	idx0 := strings.IndexByte(icaoCharset, offset[0])
	if idx0 < 0 {
		return 0, fmt.Errorf("nnumber: suffix_offset first char not icao letter")
	}
	count := (charsetLen+1)*idx0 + 1
	if n == 2 {
		idx1 := strings.IndexByte(icaoCharset, offset[1])
		if idx1 < 0 {
			return 0, fmt.Errorf("nnumber: suffix_offset second char not icao letter")
		}
		count += idx1 + 1
	}
	return count, nil
}

func createICAO(prefix string, count int) (string, error) {
	asHex := strings.ToUpper(strconv.FormatInt(int64(count), 16))
	if len(prefix)+len(asHex) > icaoSize {
		return "", fmt.Errorf("nnumber: create_icao overflow")
	}
	pad := strings.Repeat("0", icaoSize-len(prefix)-len(asHex))
	return strings.ToUpper(prefix + pad + asHex), nil
}

// IcaoToN converts a 6-character ICAO mode-S hex string (must start with "A")
// into its N-Number. modeS must already be uppercased and 6 hex chars.
func IcaoToN(modeS string) (string, error) {
	if !strings.HasPrefix(modeS, "A") {
		return "", fmt.Errorf("nnumber: icao_to_n: does not start with A")
	}
	v, err := strconv.ParseUint(modeS[1:], 16, 64)
	if err != nil {
		return "", fmt.Errorf("nnumber: icao_to_n: %w", err)
	}
	rem := int(v) - 1
	if rem < 0 {
		return "", fmt.Errorf("nnumber: icao_to_n: out of range")
	}

	var out strings.Builder
	out.WriteByte('N')

	step := func(bucket, extra int) int {
		digit := rem/bucket + extra
		rem = rem % bucket
		fmt.Fprintf(&out, "%d", digit)
		return rem
	}

	rem = step(bucket1, 1)
	if rem < suffixSize {
		suf, err := getSuffix(rem)
		if err != nil {
			return "", err
		}
		return out.String() + suf, nil
	}
	rem -= suffixSize

	rem = step(bucket2, 0)
	if rem < suffixSize {
		suf, err := getSuffix(rem)
		if err != nil {
			return "", err
		}
		return out.String() + suf, nil
	}
	rem -= suffixSize

	rem = step(bucket3, 0)
	if rem < suffixSize {
		suf, err := getSuffix(rem)
		if err != nil {
			return "", err
		}
		return out.String() + suf, nil
	}
	rem -= suffixSize

	rem = step(bucket4, 0)
	if rem == 0 {
		return out.String(), nil
	}

	if rem-1 >= len(Allchars) {
		return "", fmt.Errorf("nnumber: icao_to_n: final char out of range")
	}
	out.WriteByte(Allchars[rem-1])
	return out.String(), nil
}

// NToIcao converts an N-Number (leading "N" plus 1..5 chars from Allchars)
// into its 6-character ICAO mode-S hex string.
func NToIcao(nNumber string) (string, error) {
	const prefix = "a"
	count := 0

	tail := nNumber
	if len(tail) == 0 || tail[0] != 'N' {
		return "", fmt.Errorf("nnumber: n_to_icao: missing N prefix")
	}
	tail = tail[1:]

	if len(tail) > 0 {
		count++
	positions:
		for i := 0; i < len(tail); i++ {
			c := tail[i]
			switch {
			case i == 4:
				pos := strings.IndexByte(Allchars, c)
				if pos < 0 {
					return "", fmt.Errorf("nnumber: n_to_icao: bad char at position 4")
				}
				count += pos + 1
			case strings.IndexByte(icaoCharset, c) >= 0:
				off, err := suffixOffset(tail[i:])
				if err != nil {
					return "", err
				}
				count += off
				break positions
			case i == 0:
				d, err := digitAt(tail, i)
				if err != nil {
					return "", err
				}
				count += (d - 1) * bucket1
			case i == 1:
				d, err := digitAt(tail, i)
				if err != nil {
					return "", err
				}
				count += d*bucket2 + suffixSize
			case i == 2:
				d, err := digitAt(tail, i)
				if err != nil {
					return "", err
				}
				count += d*bucket3 + suffixSize
			case i == 3:
				d, err := digitAt(tail, i)
				if err != nil {
					return "", err
				}
				count += d*bucket4 + suffixSize
			default:
				return "", fmt.Errorf("nnumber: n_to_icao: unreachable position %d", i)
			}
		}
	}

	return createICAO(prefix, count)
}

func digitAt(s string, i int) (int, error) {
	c := s[i]
	if c < '0' || c > '9' {
		return 0, fmt.Errorf("nnumber: n_to_icao: char %q is not a digit", c)
	}
	return int(c - '0'), nil
}
