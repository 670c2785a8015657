package client

import (
	"io"
	"strconv"
	"strings"

	def "github.com/lovelydayss/zredis/interface"
)

// Render 将响应渲染为文本，每个元素一行
func Render(reply def.Reply) string {
	var sb strings.Builder
	render(&sb, reply)
	return sb.String()
}

func render(w io.StringWriter, reply def.Reply) {
	switch r := reply.(type) {
	case nil, *def.NillReply:
		_, _ = w.WriteString("(nil)\n")
	case *def.IntReply:
		_, _ = w.WriteString("(int) " + strconv.FormatInt(r.Code, 10) + "\n")
	case *def.DoubleReply:
		_, _ = w.WriteString("(dbl) " + def.FormatFloat(r.Value) + "\n")
	case *def.BulkReply:
		if r.Arg == nil {
			_, _ = w.WriteString("(nil)\n")
			return
		}
		_, _ = w.WriteString("(str) " + string(r.Arg) + "\n")
	case *def.SimpleStringReply:
		_, _ = w.WriteString("(str) " + r.Str + "\n")
	case *def.OKReply:
		_, _ = w.WriteString("(str) OK\n")
	case def.ErrorReply:
		_, _ = w.WriteString("(err) " + r.Error() + "\n")
	case *def.ArrayReply:
		_, _ = w.WriteString("(arr) len=" + strconv.Itoa(len(r.Replies)) + "\n")
		for _, sub := range r.Replies {
			render(w, sub)
		}
		_, _ = w.WriteString("(arr) end\n")
	case def.MultiReply:
		args := r.Args()
		_, _ = w.WriteString("(arr) len=" + strconv.Itoa(len(args)) + "\n")
		for _, arg := range args {
			render(w, def.NewBulkReply(arg))
		}
		_, _ = w.WriteString("(arr) end\n")
	default:
		_, _ = w.WriteString("(unknown) " + strconv.Quote(string(reply.ToBytes())) + "\n")
	}
}
