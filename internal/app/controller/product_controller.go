package controller

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

// multipart field carrying product images
const imagesField = "images"

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

type CreateProductRequest struct {
	Name        string `form:"name" binding:"required,max=255"`
	Description string `form:"description"`
	Price       string `form:"price" binding:"required"`
	Stock       int    `form:"stock" binding:"gte=0"`
	CategoryID  uint   `form:"category_id" binding:"required"`
}

type UpdateProductRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	Stock       *int    `json:"stock"`
	CategoryID  *uint   `json:"category_id"`
}

type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// ListProducts returns a filtered page of products
// GET /products?name=&price_min=&price_max=&category_id=&limit=&offset=
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	filter, ok := bindProductFilter(c)
	if !ok {
		return
	}
	ctrl.listProducts(c, filter)
}

// ListCategoryProducts GET /categories/:id/products
func (ctrl *ProductController) ListCategoryProducts(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	filter, ok := bindProductFilter(c)
	if !ok {
		return
	}
	filter.CategoryID = &categoryID
	ctrl.listProducts(c, filter)
}

func (ctrl *ProductController) listProducts(c *gin.Context, filter repository.ProductFilter) {
	page, err := ctrl.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "list products", nil)
		return
	}
	c.JSON(http.StatusOK, page)
}

func bindProductFilter(c *gin.Context) (repository.ProductFilter, bool) {
	filter := repository.ProductFilter{Name: c.Query("name")}

	for _, bound := range []struct {
		param string
		dst   **decimal.Decimal
	}{
		{"price_min", &filter.PriceMin},
		{"price_max", &filter.PriceMax},
	} {
		raw := c.Query(bound.param)
		if raw == "" {
			continue
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			apperrors.RespondWithValidationError(c, map[string]string{bound.param: "must be a number"})
			return filter, false
		}
		*bound.dst = &value
	}

	if c.Query("category_id") != "" {
		categoryID, ok := queryUint(c, "category_id")
		if !ok {
			return filter, false
		}
		filter.CategoryID = &categoryID
	}

	var ok bool
	if filter.Limit, ok = queryInt(c, "limit", 0); !ok {
		return filter, false
	}
	if filter.Offset, ok = queryInt(c, "offset", 0); !ok {
		return filter, false
	}
	return filter, true
}

// GetProduct GET /products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get product", map[string]interface{}{
			"product_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct creates a product from a multipart form with optional images
// POST /products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Warn("Invalid create product request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid product data")
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		apperrors.RespondWithValidationError(c, map[string]string{"price": "must be a number"})
		return
	}

	images, closeAll, err := formImages(c)
	if err != nil {
		log.Warn("Failed to read uploaded images", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.UploadFailed, "failed to read uploaded images")
		return
	}
	defer closeAll()

	product, err := ctrl.productService.CreateProduct(c.Request.Context(), service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	}, images)
	if err != nil {
		respondError(c, err, "create product", map[string]interface{}{
			"name": req.Name,
		})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct applies a partial update
// PATCH /products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update product request", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid product data")
		return
	}

	input := service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			apperrors.RespondWithValidationError(c, map[string]string{"price": "must be a number"})
			return
		}
		input.Price = &price
	}

	product, err := ctrl.productService.UpdateProduct(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err, "update product", map[string]interface{}{
			"product_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, product)
}

// Restock POST /products/:id/restock
func (ctrl *ProductController) Restock(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "quantity is required")
		return
	}

	product, err := ctrl.productService.Restock(c.Request.Context(), id, req.Quantity)
	if err != nil {
		respondError(c, err, "restock product", map[string]interface{}{
			"product_id": id,
			"quantity":   req.Quantity,
		})
		return
	}

	c.JSON(http.StatusOK, product)
}

// AddImages POST /products/:id/images
func (ctrl *ProductController) AddImages(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	images, closeAll, err := formImages(c)
	if err != nil || len(images) == 0 {
		apperrors.RespondWithValidationError(c, map[string]string{imagesField: "at least one image is required"})
		return
	}
	defer closeAll()

	product, err := ctrl.productService.AddImages(c.Request.Context(), id, images)
	if err != nil {
		respondError(c, err, "add product images", map[string]interface{}{
			"product_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product with its images, comments and cart items
// DELETE /products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete product", map[string]interface{}{
			"product_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}

// formImages opens every file of the images field. A request without a
// multipart body has no images.
func formImages(c *gin.Context) ([]service.ImageUpload, func(), error) {
	noop := func() {}

	form, err := c.MultipartForm()
	if err == http.ErrNotMultipart {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}

	headers := form.File[imagesField]
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	images := make([]service.ImageUpload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, noop, err
		}
		files = append(files, f)
		images = append(images, service.ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return images, closeAll, nil
}
