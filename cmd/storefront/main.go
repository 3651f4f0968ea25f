package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/velvetcharms/storefront-backend/internal/cart"
	"github.com/velvetcharms/storefront-backend/internal/catalogue"
	"github.com/velvetcharms/storefront-backend/internal/checkout"
	"github.com/velvetcharms/storefront-backend/internal/orders"
	"github.com/velvetcharms/storefront-backend/internal/wishlist"
	"github.com/velvetcharms/storefront-backend/pkg/config"
	"github.com/velvetcharms/storefront-backend/pkg/env"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
	"github.com/velvetcharms/storefront-backend/pkg/money"
	"github.com/velvetcharms/storefront-backend/pkg/storage"
)

const defaultSources = "catalogue-body-glow.json,catalogue-art-gifts.json,catalogue.json"

const usage = `usage: storefront [flags] <command>

commands:
  catalogue                          list products
  cart show                          show the cart
  cart add <productId> [qty] [k=v]   add a product with options
  cart set <key> <qty>               set a line quantity (0 removes)
  cart remove <key>                  remove a line
  cart clear                         empty the cart
  wishlist show                      show the wishlist
  wishlist toggle <productId>        add or remove a product
  checkout [-shipping 5.00]          create an order for the whole cart
  capture <orderID>                  capture an approved order
`

type app struct {
	server    string
	dataDir   string
	sources   []string
	catDir    string
	timeout   time.Duration
	currency  string
	openPages bool
	out       io.Writer
	logger    *logger.Logger
}

func main() {
	_ = godotenv.Load()

	a := &app{out: os.Stdout}
	flags := flag.NewFlagSet("storefront", flag.ExitOnError)
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flags.StringVar(&a.server, "server", env.Get("VELVET_SERVER_URL", "http://localhost:8080"), "storefront api base url")
	flags.StringVar(&a.dataDir, "data", env.Get("VELVET_DATA_DIR", ".velvet"), "local cart and wishlist directory")
	flags.StringVar(&a.catDir, "catalogue-dir", env.Get(config.EnvCatalogueDir, "."), "directory for relative catalogue sources")
	flags.StringVar(&a.currency, "currency", env.Get(config.EnvPayPalCurrency, "USD"), "order currency")
	flags.DurationVar(&a.timeout, "timeout", env.Duration("VELVET_CLIENT_TIMEOUT", 30*time.Second), "network timeout")
	flags.BoolVar(&a.openPages, "open", false, "open the approval page in a browser")
	a.sources = env.List(config.EnvCatalogueSources, defaultSources)
	flags.Func("sources", "comma separated catalogue sources", func(raw string) error {
		a.sources = strings.Split(raw, ",")
		return nil
	})
	_ = flags.Parse(os.Args[1:])

	a.logger = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       env.Get(config.EnvLogLevel, zerolog.LevelWarnValue),
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := a.run(ctx, flags.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return nil
	}
	switch args[0] {
	case "catalogue":
		return a.listCatalogue(ctx)
	case "cart":
		return a.cartCommand(ctx, args[1:])
	case "wishlist":
		return a.wishlistCommand(ctx, args[1:])
	case "checkout":
		return a.checkout(ctx, args[1:])
	case "capture":
		if len(args) != 2 {
			return fmt.Errorf("capture needs an order id")
		}
		return a.capture(ctx, args[1])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *app) backend() (storage.Backend, error) {
	return storage.NewFile(a.dataDir)
}

func (a *app) loadCatalogue(ctx context.Context) *catalogue.Index {
	index, report := catalogue.Load(ctx, a.sources, catalogue.Options{
		Fetcher: catalogue.NewFetcher(a.timeout, a.catDir),
		Logger:  a.logger,
	})
	if len(report.Failed) > 0 {
		fmt.Fprintf(a.out, "warning: could not load %s\n", strings.Join(report.Failed, ", "))
	}
	return index
}

func (a *app) listCatalogue(ctx context.Context) error {
	index := a.loadCatalogue(ctx)
	for _, p := range index.Products() {
		price := "contact us"
		if p.Priced {
			price = money.Display(p.Price, a.currency)
		}
		fmt.Fprintf(a.out, "%-12s %-40s %10s\n", p.ID, p.Name, price)
	}
	fmt.Fprintf(a.out, "%d products\n", index.Len())
	return nil
}

func (a *app) cartStore() (*cart.Store, error) {
	backend, err := a.backend()
	if err != nil {
		return nil, err
	}
	return cart.NewStore(backend, a.logger)
}

func (a *app) cartCommand(ctx context.Context, args []string) error {
	store, err := a.cartStore()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"show"}
	}

	var current cart.Cart
	switch args[0] {
	case "show":
		current, err = store.Get(ctx)
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("cart add needs a product id")
		}
		qty, options, perr := parseAddArgs(args[2:])
		if perr != nil {
			return perr
		}
		product, ok := a.loadCatalogue(ctx).Lookup(args[1])
		if !ok {
			return fmt.Errorf("product %q is not in the catalogue", args[1])
		}
		if !product.Priced {
			return fmt.Errorf("product %q has no price; contact us to order it", args[1])
		}
		current, err = store.Add(ctx, product.ID, cart.Snapshot{Name: product.Name, Price: product.Price}, qty, options)
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("cart set needs a line key and a quantity")
		}
		qty, perr := strconv.Atoi(args[2])
		if perr != nil || qty < 0 {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		current, err = store.SetQuantity(ctx, args[1], qty)
	case "remove":
		if len(args) != 2 {
			return fmt.Errorf("cart remove needs a line key")
		}
		current, err = store.Remove(ctx, args[1])
	case "clear":
		if err := store.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "cart cleared")
		return nil
	default:
		return fmt.Errorf("unknown cart command %q", args[0])
	}
	if err != nil {
		return err
	}
	printCart(a.out, current)
	return nil
}

func printCart(out io.Writer, c cart.Cart) {
	if c.IsEmpty() {
		fmt.Fprintln(out, "cart is empty")
		return
	}
	for _, line := range c.Lines() {
		fmt.Fprintf(out, "%-32s %-30s x%-3d %10s\n", line.Key, line.Name, line.Quantity, money.Format(line.Total()))
	}
	fmt.Fprintf(out, "%d items, subtotal %s\n", c.Quantity(), money.Format(c.Subtotal()))
}

func (a *app) wishlistCommand(ctx context.Context, args []string) error {
	backend, err := a.backend()
	if err != nil {
		return err
	}
	store, err := wishlist.NewStore(backend, a.logger)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"show"}
	}

	var current wishlist.Wishlist
	switch args[0] {
	case "show":
		current, err = store.Get(ctx)
	case "toggle":
		if len(args) != 2 {
			return fmt.Errorf("wishlist toggle needs a product id")
		}
		var added bool
		current, added, err = store.Toggle(ctx, args[1])
		if err == nil {
			verb := "removed"
			if added {
				verb = "added"
			}
			fmt.Fprintf(a.out, "%s %s\n", verb, args[1])
		}
	default:
		return fmt.Errorf("unknown wishlist command %q", args[0])
	}
	if err != nil {
		return err
	}
	for _, id := range current.IDs {
		fmt.Fprintln(a.out, id)
	}
	fmt.Fprintf(a.out, "%d saved\n", current.Len())
	return nil
}

func (a *app) checkout(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("checkout", flag.ContinueOnError)
	flags.SetOutput(a.out)
	shipping := flags.String("shipping", "", "shipping amount")
	if err := flags.Parse(args); err != nil {
		return err
	}
	var fee decimal.Decimal
	if *shipping != "" {
		parsed, err := decimal.NewFromString(*shipping)
		if err != nil || parsed.IsNegative() {
			return fmt.Errorf("invalid shipping %q", *shipping)
		}
		fee = parsed
	}

	store, err := a.cartStore()
	if err != nil {
		return err
	}
	builder, err := orders.NewBuilder(config.PayPalConfig{Currency: a.currency})
	if err != nil {
		return err
	}
	var navigator checkout.Navigator = checkout.PrintNavigator{Out: a.out}
	if a.openPages {
		navigator = browserNavigator{fallback: navigator}
	}

	controller, err := checkout.NewController(checkout.Params{
		Cart:      store,
		Catalogue: a.loadCatalogue(ctx),
		Builder:   builder,
		Orders:    checkout.NewHTTPOrderService(a.server, a.timeout),
		Navigator: navigator,
		Notifier:  &checkout.WriterNotifier{Out: a.out},
		Shipping:  fee,
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}
	outcome, err := controller.CheckoutAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "order %s created for %s (%d lines)\n", outcome.OrderID, money.Display(outcome.GrandTotal, a.currency), outcome.Lines)
	return nil
}

func (a *app) capture(ctx context.Context, orderID string) error {
	captured, err := checkout.NewHTTPOrderService(a.server, a.timeout).CaptureOrder(ctx, orderID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "order %s: %s\n", captured.OrderID, captured.Status)
	if captured.CaptureID != "" {
		fmt.Fprintf(a.out, "capture %s\n", captured.CaptureID)
	}
	return nil
}

// parseAddArgs reads an optional leading quantity followed by key=value options.
func parseAddArgs(args []string) (int, map[string]string, error) {
	qty := 1
	if len(args) > 0 && !strings.Contains(args[0], "=") {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return 0, nil, fmt.Errorf("invalid quantity %q", args[0])
		}
		qty = n
		args = args[1:]
	}
	var options map[string]string
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return 0, nil, fmt.Errorf("invalid option %q (want key=value)", arg)
		}
		if options == nil {
			options = map[string]string{}
		}
		options[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return qty, options, nil
}
