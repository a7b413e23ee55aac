package domain

// Service is an immutable catalog entry from GET /services.
type Service struct {
	ServiceCode   string `json:"service_code"`
	ServiceName   string `json:"service_name"`
	ServiceIcon   string `json:"service_icon"`
	ServiceTariff int64  `json:"service_tariff"`
}

// Banner is a promotional banner from GET /banner.
type Banner struct {
	BannerName  string `json:"banner_name"`
	BannerImage string `json:"banner_image"`
}

// CatalogState is the Catalog Store slice.
type CatalogState struct {
	Services       []Service `json:"services"`
	Banners        []Banner  `json:"banners"`
	ServicesStatus Status    `json:"services_status"`
	ServicesError  string    `json:"services_error,omitempty"`
	BannersStatus  Status    `json:"banners_status"`
	BannersError   string    `json:"banners_error,omitempty"`
}
