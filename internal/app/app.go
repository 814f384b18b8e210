package app

import (
	"net/http"
	"os"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/hdnguyen-vn/keymart/internal/adapters/ai"
	"github.com/hdnguyen-vn/keymart/internal/adapters/httpserver"
	"github.com/hdnguyen-vn/keymart/internal/adapters/mail"
	"github.com/hdnguyen-vn/keymart/internal/adapters/repo/postgres"
	"github.com/hdnguyen-vn/keymart/internal/domain"
	"github.com/hdnguyen-vn/keymart/internal/usecase"
)

type App struct {
	DB          *gorm.DB
	OrderUC     *usecase.OrderUC
	FulfillUC   *usecase.FulfillmentUC
	DiscountUC  *usecase.DiscountUC
	Products    domain.ProductRepo
	Customers   domain.CustomerRepo
	Keys        domain.LicenseKeyRepo
	Describer   *ai.Describer
	OAuthConfig *oauth2.Config
}

func NewApp(db *gorm.DB) (*App, error) {
	prodRepo := postgres.NewProductRepo(db)
	orderRepo := postgres.NewOrderRepo(db)
	discRepo := postgres.NewDiscountRepo(db)
	keyRepo := postgres.NewLicenseKeyRepo(db)
	notifRepo := postgres.NewStockNotificationRepo(db)
	custRepo := postgres.NewCustomerRepo(db)
	loyaltyRepo := postgres.NewLoyaltyRepo(db)

	vatRate := int64(10)
	if v := os.Getenv("VAT_RATE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			vatRate = n
		}
	}

	discountUC := &usecase.DiscountUC{Discounts: discRepo}
	orderUC := &usecase.OrderUC{
		Orders:    orderRepo,
		Products:  prodRepo,
		Customers: custRepo,
		Loyalty:   loyaltyRepo,
		Discount:  discountUC,
		VATRate:   vatRate,
	}
	fulfillUC := &usecase.FulfillmentUC{
		Orders:        orderRepo,
		Products:      prodRepo,
		Keys:          keyRepo,
		Notifications: notifRepo,
		Customers:     custRepo,
		Loyalty:       loyaltyRepo,
		Mailer:        mail.NewFromEnv(),
	}

	var oauthCfg *oauth2.Config
	googleID := os.Getenv("GOOGLE_CLIENT_ID")
	googleSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if googleID != "" && googleSecret != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     googleID,
			ClientSecret: googleSecret,
			RedirectURL:  baseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}

	return &App{
		DB:          db,
		OrderUC:     orderUC,
		FulfillUC:   fulfillUC,
		DiscountUC:  discountUC,
		Products:    prodRepo,
		Customers:   custRepo,
		Keys:        keyRepo,
		Describer:   ai.NewFromEnv(),
		OAuthConfig: oauthCfg,
	}, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.Products, a.Customers, a.Keys, a.OrderUC, a.FulfillUC, a.DiscountUC, a.Describer, a.OAuthConfig)
}

func (a *App) MigrateAndSeed() error {
	if err := a.DB.AutoMigrate(
		&domain.Product{}, &domain.Variant{}, &domain.LicenseKey{},
		&domain.Order{}, &domain.OrderItem{},
		&domain.Discount{}, &domain.Customer{},
		&domain.LoyaltySettings{}, &domain.LoyaltyTier{},
		&domain.StockNotification{},
	); err != nil {
		return err
	}

	// One key string lives at most once per variant pool.
	_ = a.DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_license_keys_variant_key ON license_keys (variant_id, key)").Error
	_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_orders_fulfillment_pending ON orders (fulfillment_pending) WHERE fulfillment_pending").Error

	if err := seedLoyalty(a.DB); err != nil {
		return err
	}
	seedProducts(a.DB)
	return nil
}

func seedLoyalty(db *gorm.DB) error {
	var count int64
	if err := db.Model(&domain.LoyaltySettings{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	s := domain.LoyaltySettings{
		ID:                  uuid.New(),
		PointConversionRate: 0.001, // 1 point per 1.000đ
	}
	tiers := []domain.LoyaltyTier{
		{Program: domain.RoleCustomer, Name: "Thành viên Bạc", MinPoints: 100, DiscountPercentage: 2, Benefits: []string{"Giảm 2% mọi đơn hàng"}},
		{Program: domain.RoleCustomer, Name: "Thành viên Vàng", MinPoints: 500, DiscountPercentage: 5, Benefits: []string{"Giảm 5% mọi đơn hàng", "Hỗ trợ ưu tiên"}},
		{Program: domain.RoleCustomer, Name: "Thành viên Kim Cương", MinPoints: 2000, DiscountPercentage: 8, Benefits: []string{"Giảm 8% mọi đơn hàng", "Hỗ trợ ưu tiên", "Ưu đãi sớm"}},
		{Program: domain.RoleReseller, Name: "Đại lý Đồng", MinPoints: 1000, DiscountPercentage: 3, Benefits: []string{"Giảm thêm 3%"}},
		{Program: domain.RoleReseller, Name: "Đại lý Vàng", MinPoints: 5000, DiscountPercentage: 6, Benefits: []string{"Giảm thêm 6%", "Công nợ 15 ngày"}},
	}
	for i := range tiers {
		tiers[i].ID = uuid.New()
		tiers[i].SettingsID = s.ID
	}
	s.Tiers = tiers
	return db.Create(&s).Error
}

func seedProducts(db *gorm.DB) {
	var count int64
	if err := db.Model(&domain.Product{}).Count(&count).Error; err != nil || count > 0 {
		return
	}
	reseller := func(v int64) *int64 { return &v }
	prods := []domain.Product{
		{
			ID: uuid.New(), Slug: "windows-11-pro", Name: "Windows 11 Pro", Category: "he-dieu-hanh", Brand: "Microsoft",
			ShortDesc: "Key bản quyền Windows 11 Pro, kích hoạt online vĩnh viễn.",
			Variants: []domain.Variant{
				{ID: uuid.New(), Name: "Retail", Price: 590000, ResellerPrice: reseller(450000)},
				{ID: uuid.New(), Name: "OEM", Price: 390000, ResellerPrice: reseller(290000)},
			},
		},
		{
			ID: uuid.New(), Slug: "office-2021-pro-plus", Name: "Office 2021 Professional Plus", Category: "van-phong", Brand: "Microsoft",
			ShortDesc: "Key Office 2021 dùng vĩnh viễn cho 1 PC.",
			Variants: []domain.Variant{
				{ID: uuid.New(), Name: "1 PC", Price: 790000, ResellerPrice: reseller(620000)},
			},
		},
		{
			ID: uuid.New(), Slug: "kaspersky-plus", Name: "Kaspersky Plus", Category: "bao-mat", Brand: "Kaspersky",
			ShortDesc: "Diệt virus Kaspersky Plus 1 năm.",
			Variants: []domain.Variant{
				{ID: uuid.New(), Name: "1 thiết bị / 1 năm", Price: 290000},
				{ID: uuid.New(), Name: "3 thiết bị / 1 năm", Price: 490000},
			},
		},
	}
	for _, p := range prods {
		for i := range p.Variants {
			p.Variants[i].ProductID = p.ID
		}
		db.Create(&p)
	}
}
