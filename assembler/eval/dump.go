package eval

import (
	"io"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
)

// Dump writes a hex listing of the output followed by the scopes and
// the references not yet patched. After a failure inside a block the
// scopes are the ones live at the failure.
func (s *State) Dump(w io.Writer) error {
	b := s.AppendDump(nil)

	_, err := w.Write(b)
	if err != nil {
		return errors.Wrap(err, "write dump")
	}

	return nil
}

func (s *State) AppendDump(b []byte) []byte {
	const width = 16

	out := s.Out.Bytes()
	pend := s.Out.Pending()

	b = hfmt.Appendf(b, "image: %d bytes\n", len(out))

	for st := 0; st < len(out); st += width {
		b = hfmt.Appendf(b, "%04x:", st)

		for i := st; i < st+width && i < len(out); i++ {
			if pend.IsSet(i) {
				b = append(b, " __"...)
				continue
			}

			b = hfmt.Appendf(b, " %02x", out[i])
		}

		b = append(b, '\n')
	}

	scopes := s.failed
	if scopes == nil {
		scopes = s.Scopes.Scopes()
	}

	for d, sc := range scopes {
		b = hfmt.Appendf(b, "scope %d: %d symbols\n", d, len(sc))

		for _, sym := range sc.Sorted() {
			b = hfmt.Appendf(b, "\t%-8s %-16s %#04x\n", sym.Kind.String(), sym.Name, sym.Value)
		}
	}

	if len(s.Refs) != 0 {
		b = hfmt.Appendf(b, "unresolved: %d\n", len(s.Refs))

		for _, r := range s.Refs {
			b = hfmt.Appendf(b, "\t%04x %-4s %-16s at %s\n", r.Pos, r.Part.String(), r.Name, r.Context)
		}
	}

	return b
}
