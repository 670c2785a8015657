package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lovelydayss/zredis/client"
	"github.com/lovelydayss/zredis/parser"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:1234", "server address")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	retries := flag.Uint64("retries", 3, "dial retries")
	flag.Parse()

	opts := client.DefaultOptions()
	opts.MaxRetries = *retries

	c, err := client.Dial(context.Background(), *addr, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	// 带参数时执行单条指令，例如 zredis-cli zadd zset 1 n1
	if flag.NArg() > 0 {
		if err := do(c, *timeout, flag.Args()); err != nil {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
			os.Exit(1)
		}
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for prompt(*addr); scanner.Scan(); prompt(*addr) {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}

		args, err := parser.SplitArgs([]byte(line))
		if err != nil {
			fmt.Printf("(err) %s\n", err.Error())
			continue
		}
		strArgs := make([]string, 0, len(args))
		for _, arg := range args {
			strArgs = append(strArgs, string(arg))
		}

		if err := do(c, *timeout, strArgs); err != nil {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
			os.Exit(1)
		}
	}
}

func prompt(addr string) {
	fmt.Print(addr + "> ")
}

func do(c *client.Client, timeout time.Duration, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	reply, err := c.Do(ctx, args...)
	if err != nil {
		return err
	}
	fmt.Print(client.Render(reply))
	return nil
}
