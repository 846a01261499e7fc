package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rybosome/tspice-sub002/columnar"
	"github.com/rybosome/tspice-sub002/registry"
	"github.com/rybosome/tspice-sub002/spice"
)

type opParam struct {
	name string
	typ  string
}

type operation struct {
	name   string
	about  string
	params []opParam
	run    func(ctx context.Context, b *spice.Backend, args []string) (string, error)
}

func parseHandle(s string) (registry.Handle, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("handle %q: %w", s, err)
	}
	return registry.Handle(v), nil
}

func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("integer %q: %w", s, err)
	}
	return int32(v), nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("number %q: %w", s, err)
	}
	return v, nil
}

func parseInt32List(s string) ([]int32, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, " ")
	out := make([]int32, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		v, err := parseInt32(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseFloatList(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, " ")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		v, err := parseFloat(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseBoolList(s string) ([]bool, error) {
	ints, err := parseInt32List(s)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(ints))
	for i, v := range ints {
		out[i] = v != 0
	}
	return out, nil
}

func parseRequest(entszs, nlflgs, rcptrs string) (columnar.Request, error) {
	var req columnar.Request
	var err error
	if req.EntrySizes, err = parseInt32List(entszs); err != nil {
		return req, err
	}
	if req.NullFlags, err = parseBoolList(nlflgs); err != nil {
		return req, err
	}
	if req.RecordPtrs, err = parseInt32List(rcptrs); err != nil {
		return req, err
	}
	return req, nil
}

func formatInt32s(vals []int32) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatInt(int64(v), 10)
	}
	return strings.Join(parts, " ")
}

// operations is the CLI's catalog: every engine operation the backend
// exposes, with string-typed arguments. List-valued arguments are
// space-separated; column declarations are semicolon-separated.
var operations = []operation{
	{
		name:  "tkvrsn",
		about: "toolkit version string",
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			return b.ToolkitVersion(ctx)
		},
	},
	{
		name:   "furnsh",
		about:  "load a kernel file",
		params: []opParam{{"path", "string"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			return "ok", b.Furnsh(ctx, args[0])
		},
	},
	{
		name:   "unload",
		about:  "unload a kernel file",
		params: []opParam{{"path", "string"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			return "ok", b.Unload(ctx, args[0])
		},
	},
	{
		name:  "kclear",
		about: "clear the kernel pool",
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			return "ok", b.Kclear(ctx)
		},
	},
	{
		name:   "ktotal",
		about:  "count loaded kernels of a kind",
		params: []opParam{{"kind", "string"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			n, err := b.Ktotal(ctx, args[0])
			if err != nil {
				return "", err
			}
			return strconv.FormatInt(int64(n), 10), nil
		},
	},
	{
		name:   "str2et",
		about:  "time string to ephemeris seconds",
		params: []opParam{{"time", "string"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			et, err := b.Str2ET(ctx, args[0])
			if err != nil {
				return "", err
			}
			return strconv.FormatFloat(et, 'g', -1, 64), nil
		},
	},
	{
		name:   "et2utc",
		about:  "ephemeris seconds to UTC string",
		params: []opParam{{"et", "float"}, {"format", "string"}, {"prec", "int"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			et, err := parseFloat(args[0])
			if err != nil {
				return "", err
			}
			prec, err := parseInt32(args[2])
			if err != nil {
				return "", err
			}
			return b.ET2UTC(ctx, et, args[1], prec)
		},
	},
	{
		name:   "spkezr",
		about:  "state of target relative to observer",
		params: []opParam{{"target", "string"}, {"et", "float"}, {"frame", "string"}, {"abcorr", "string"}, {"observer", "string"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			et, err := parseFloat(args[1])
			if err != nil {
				return "", err
			}
			state, lt, err := b.SpkEzr(ctx, args[0], et, args[2], args[3], args[4])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("pos %v km\nvel %v km/s\nlight time %g s",
				state.Position, state.Velocity, lt), nil
		},
	},
	{
		name:   "dafopr",
		about:  "open a direct-access file for reading",
		params: []opParam{{"path", "string"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			h, err := b.DafOpenRead(ctx, args[0])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("handle %d", h), nil
		},
	},
	{
		name:   "dafbfs",
		about:  "begin a forward array search",
		params: []opParam{{"handle", "int"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			h, err := parseHandle(args[0])
			if err != nil {
				return "", err
			}
			return "ok", b.DafBeginForwardSearch(ctx, h)
		},
	},
	{
		name:   "daffna",
		about:  "find the next array in the active search",
		params: []opParam{{"handle", "int"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			h, err := parseHandle(args[0])
			if err != nil {
				return "", err
			}
			found, err := b.DafFindNextArray(ctx, h)
			if err != nil {
				return "", err
			}
			return strconv.FormatBool(found), nil
		},
	},
	{
		name:   "dafcls",
		about:  "close a direct-access file",
		params: []opParam{{"handle", "int"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			h, err := parseHandle(args[0])
			if err != nil {
				return "", err
			}
			return "ok", b.DafClose(ctx, h)
		},
	},
	{
		name:   "dasopr",
		about:  "open a direct-access segment file for reading",
		params: []opParam{{"path", "string"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			h, err := b.DasOpenRead(ctx, args[0])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("handle %d", h), nil
		},
	},
	{
		name:   "dascls",
		about:  "close a direct-access segment or linked-array file",
		params: []opParam{{"handle", "int"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			h, err := parseHandle(args[0])
			if err != nil {
				return "", err
			}
			return "ok", b.DasClose(ctx, h)
		},
	},
	{
		name:   "dlaopn",
		about:  "create a direct-linked-array file",
		params: []opParam{{"path", "string"}, {"ftype", "string"}, {"ifname", "string"}, {"ncomch", "int"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			ncomch, err := parseInt32(args[3])
			if err != nil {
				return "", err
			}
			h, err := b.DlaOpen(ctx, args[0], args[1], args[2], ncomch)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("handle %d", h), nil
		},
	},
	{
		name:   "ekopn",
		about:  "create a new event table file",
		params: []opParam{{"path", "string"}, {"ifname", "string"}, {"ncomch", "int"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			ncomch, err := parseInt32(args[2])
			if err != nil {
				return "", err
			}
			h, err := b.EkOpenNew(ctx, args[0], args[1], ncomch)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("handle %d", h), nil
		},
	},
	{
		name:   "ekopr",
		about:  "open an event table file for reading",
		params: []opParam{{"path", "string"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			h, err := b.EkOpenRead(ctx, args[0])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("handle %d", h), nil
		},
	},
	{
		name:   "ekopw",
		about:  "open an event table file for writing",
		params: []opParam{{"path", "string"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			h, err := b.EkOpenWrite(ctx, args[0])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("handle %d", h), nil
		},
	},
	{
		name:   "ekcls",
		about:  "close an event table file",
		params: []opParam{{"handle", "int"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			h, err := parseHandle(args[0])
			if err != nil {
				return "", err
			}
			return "ok", b.EkClose(ctx, h)
		},
	},
	{
		name:  "ekifld",
		about: "start a fast-write segment",
		params: []opParam{
			{"handle", "int"}, {"table", "string"},
			{"columns", "names"}, {"decls", "decl;decl"}, {"nrows", "int"},
		},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			h, err := parseHandle(args[0])
			if err != nil {
				return "", err
			}
			nrows, err := parseInt32(args[4])
			if err != nil {
				return "", err
			}
			names := strings.Fields(args[2])
			decls := strings.Split(args[3], ";")
			for i := range decls {
				decls[i] = strings.TrimSpace(decls[i])
			}
			segno, rcptrs, err := b.EkInitSegment(ctx, h, args[1], names, decls, nrows)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("segno %d\nrcptrs %s", segno, formatInt32s(rcptrs)), nil
		},
	},
	{
		name:  "ekacli",
		about: "write an integer column",
		params: []opParam{
			{"handle", "int"}, {"segno", "int"}, {"column", "string"},
			{"values", "ints"}, {"entszs", "ints"}, {"nlflgs", "0/1 flags"}, {"rcptrs", "ints"},
		},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			h, err := parseHandle(args[0])
			if err != nil {
				return "", err
			}
			segno, err := parseInt32(args[1])
			if err != nil {
				return "", err
			}
			values, err := parseInt32List(args[3])
			if err != nil {
				return "", err
			}
			req, err := parseRequest(args[4], args[5], args[6])
			if err != nil {
				return "", err
			}
			return "ok", b.EkAddIntColumn(ctx, h, segno, args[2], values, req)
		},
	},
	{
		name:  "ekacld",
		about: "write a double-precision column",
		params: []opParam{
			{"handle", "int"}, {"segno", "int"}, {"column", "string"},
			{"values", "floats"}, {"entszs", "ints"}, {"nlflgs", "0/1 flags"}, {"rcptrs", "ints"},
		},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			h, err := parseHandle(args[0])
			if err != nil {
				return "", err
			}
			segno, err := parseInt32(args[1])
			if err != nil {
				return "", err
			}
			values, err := parseFloatList(args[3])
			if err != nil {
				return "", err
			}
			req, err := parseRequest(args[4], args[5], args[6])
			if err != nil {
				return "", err
			}
			return "ok", b.EkAddDoubleColumn(ctx, h, segno, args[2], values, req)
		},
	},
	{
		name:  "ekaclc",
		about: "write a character column",
		params: []opParam{
			{"handle", "int"}, {"segno", "int"}, {"column", "string"},
			{"values", "words"}, {"entszs", "ints"}, {"nlflgs", "0/1 flags"}, {"rcptrs", "ints"},
		},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			h, err := parseHandle(args[0])
			if err != nil {
				return "", err
			}
			segno, err := parseInt32(args[1])
			if err != nil {
				return "", err
			}
			values := strings.Fields(args[3])
			req, err := parseRequest(args[4], args[5], args[6])
			if err != nil {
				return "", err
			}
			return "ok", b.EkAddStringColumn(ctx, h, segno, args[2], values, req)
		},
	},
	{
		name:   "ekffld",
		about:  "commit a fast-write segment",
		params: []opParam{{"handle", "int"}, {"segno", "int"}, {"rcptrs", "ints"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			h, err := parseHandle(args[0])
			if err != nil {
				return "", err
			}
			segno, err := parseInt32(args[1])
			if err != nil {
				return "", err
			}
			rcptrs, err := parseInt32List(args[2])
			if err != nil {
				return "", err
			}
			return "ok", b.EkFinishSegment(ctx, h, segno, rcptrs)
		},
	},
	{
		name:  "failed",
		about: "query the engine failure flag",
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			f, err := b.Failed(ctx)
			if err != nil {
				return "", err
			}
			return strconv.FormatBool(f), nil
		},
	},
	{
		name:  "reset",
		about: "clear the engine failure state",
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			return "ok", b.Reset(ctx)
		},
	},
	{
		name:   "getmsg",
		about:  "read the current error message",
		params: []opParam{{"which", "SHORT|LONG|EXPLAIN"}},
		run: func(ctx context.Context, b *spice.Backend, args []string) (string, error) {
			return b.GetMessage(ctx, args[0])
		},
	},
}

func findOperation(name string) (operation, bool) {
	for _, op := range operations {
		if op.name == name {
			return op, true
		}
	}
	return operation{}, false
}
