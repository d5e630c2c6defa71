package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/secondchances-backend/internal/config"
	"github.com/shinyyama/secondchances-backend/internal/db"
	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/server"
	"github.com/shinyyama/secondchances-backend/internal/service"
	"github.com/shinyyama/secondchances-backend/internal/storage"
)

type seedUser struct {
	UID   string
	Name  string
	Email string
}

type seedBox struct {
	Title       string
	Description string
	Category    string
	PriceYen    int64
	OriginalYen int64
	Quantity    int
}

var (
	demoSeller = seedUser{UID: "demo-seller", Name: "Corner Bakery", Email: "bakery@example.com"}
	demoBuyer  = seedUser{UID: "demo-buyer", Name: "Hana", Email: "hana@example.com"}
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	svcs := server.NewServices(gdb, storage.Disabled{}, nil, cfg.PointsPer100Yen)

	for _, u := range []seedUser{demoSeller, demoBuyer} {
		if err := svcs.Users.SyncIdentity(ctx, u.UID, u.Name, picsumURL("avatar", u.UID), u.Email); err != nil {
			return fmt.Errorf("user %s: %w", u.UID, err)
		}
	}

	existing, err := svcs.Boxes.ListBySeller(ctx, demoSeller.UID)
	if err != nil {
		return fmt.Errorf("list boxes: %w", err)
	}
	if len(existing) > 0 && !strings.EqualFold(os.Getenv("FORCE_SEED"), "true") {
		log.Printf("boxes already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	start := time.Now().UTC().Truncate(time.Hour).Add(2 * time.Hour)
	for i, b := range buildSeedBoxes() {
		img := picsumURL(b.Category, fmt.Sprint(i+1))
		_, err := svcs.Boxes.Create(ctx, demoSeller.UID, service.BoxInput{
			Title:          b.Title,
			Description:    b.Description,
			Category:       b.Category,
			PriceYen:       b.PriceYen,
			OriginalYen:    b.OriginalYen,
			Quantity:       b.Quantity,
			PickupStartsAt: start,
			PickupEndsAt:   start.Add(3 * time.Hour),
			ImageURL:       &img,
		})
		if err != nil {
			return fmt.Errorf("box %q: %w", b.Title, err)
		}
	}

	threads, err := svcs.Conversations.ListConversations(ctx, demoBuyer.UID, string(model.RoleBuyer))
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}
	if len(threads) == 0 {
		if _, err := svcs.Conversations.Resolve(ctx, demoBuyer.UID, demoSeller.UID); err != nil {
			return fmt.Errorf("resolve conversation: %w", err)
		}
		if _, _, err := svcs.Conversations.AppendMessage(ctx, demoSeller.UID, demoBuyer.UID, "Hi! Are the pastry boxes still available this evening?"); err != nil {
			return fmt.Errorf("seed message: %w", err)
		}
	}

	log.Printf("seeded %d boxes", len(buildSeedBoxes()))
	return nil
}

func buildSeedBoxes() []seedBox {
	type cat struct {
		Slug   string
		Price  int64
		Titles []string
	}
	categories := []cat{
		{Slug: "bakery", Price: 400, Titles: []string{"Pastry surprise box", "Day-old bread bag"}},
		{Slug: "bento", Price: 500, Titles: []string{"Evening bento set", "Onigiri trio"}},
		{Slug: "produce", Price: 300, Titles: []string{"Wonky vegetable box", "Seasonal fruit bag"}},
		{Slug: "sweets", Price: 350, Titles: []string{"Cake ends box"}},
	}
	var boxes []seedBox
	for _, c := range categories {
		for i, t := range c.Titles {
			price := c.Price + int64(i*50)
			boxes = append(boxes, seedBox{
				Title:       t,
				Description: fmt.Sprintf("%s from today's %s surplus. Contents vary.", t, c.Slug),
				Category:    c.Slug,
				PriceYen:    price,
				OriginalYen: price * 3,
				Quantity:    3 + i,
			})
		}
	}
	return boxes
}

func picsumURL(slug, key string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s-%s/600/600", slug, key)
}
