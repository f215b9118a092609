package store

// ProductStatusPublished marks catalog rows visible to shoppers.
const ProductStatusPublished = "published"

// Vendor is the shop selling a product.
type Vendor struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Product is a read-only catalog row.
type Product struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	Price             *float64 `json:"price,omitempty"`
	Description       string   `json:"description"`
	SearchDescription string   `json:"search_description"`
	StockStatus       string   `json:"stock_status"`
	StockQuantity     *int32   `json:"stock_quantity,omitempty"`
	CategoryName      string   `json:"category_name"`
	SubcategoryName   string   `json:"subcategory_name"`
	TagNames          []string `json:"tag_names"`
	Status            string   `json:"status"`
	Vendor            *Vendor  `json:"vendor,omitempty"`

	// Similarity is set by vector search only.
	Similarity float64 `json:"similarity,omitempty"`
}

// InStock reports whether the row is not explicitly out of stock.
func (p *Product) InStock() bool {
	if p.StockStatus == "out_of_stock" {
		return false
	}
	return p.StockQuantity == nil || *p.StockQuantity > 0
}

// FindProductsByVector is a similarity query.
type FindProductsByVector struct {
	Embedding []float32
	// Threshold is the minimum cosine similarity.
	Threshold float64
	Limit     int
}

// SearchProductsByText is a substring query over published rows.
type SearchProductsByText struct {
	Query string
	Limit int
}

// FindProductsWithoutEmbedding selects catalog rows still missing a vector.
type FindProductsWithoutEmbedding struct {
	Limit int
}

// UpdateProductEmbedding stores the vector of one product.
type UpdateProductEmbedding struct {
	ID        int64
	Embedding []float32
}
