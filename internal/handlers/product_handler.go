package handlers

import (
	"errors"
	"fmt"

	"storefront/internal/middleware"
	"storefront/internal/services"
	"storefront/internal/upload"
	"storefront/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// ImageInspector classifies an uploaded file without storing it.
type ImageInspector interface {
	Inspect(f *upload.File) upload.Result
}

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	productService *services.ProductService
	images         ImageInspector
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService, images ImageInspector) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		images:         images,
	}
}

// RegisterRoutes registers the product routes. Writes go through authRequired
// followed by the role gate of the operation.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	productRoutes := router.Group("/product")
	productRoutes.Get("/", h.HandleList)
	productRoutes.Post("/create", authRequired, middleware.RequireSeller(), h.HandleCreate)
	productRoutes.Get("/:id", h.HandleDetail)
	productRoutes.Delete("/:id/delete", authRequired, middleware.RequireAdmin(), h.HandleDelete)
	productRoutes.Post("/:id/update", authRequired, middleware.RequireSeller(), h.HandleUpdate)
}

// HandleList returns every product.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	products, err := h.productService.ListProducts(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleDetail returns one product with its category.
func (h *ProductHandler) HandleDetail(c *fiber.Ctx) error {
	id := c.Params("id")
	product, err := h.productService.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, fmt.Sprintf("Product %s not found", id), err)
	}
	return c.JSON(product)
}

// HandleCreate creates a product from a multipart form and redirects to it.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	form, image, err := h.readForm(c)
	if err != nil {
		return respondError(c, "Invalid request body", err)
	}

	product, err := h.productService.CreateProduct(c.UserContext(), form, image)
	if err != nil {
		return respondError(c, "Could not create product", err)
	}
	return c.Redirect(product.URL, fiber.StatusFound)
}

// HandleUpdate replaces a product's fields and redirects to it.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	id := c.Params("id")
	form, image, err := h.readForm(c)
	if err != nil {
		return respondError(c, "Invalid request body", err)
	}

	product, err := h.productService.UpdateProduct(c.UserContext(), id, form, image)
	if err != nil {
		return respondError(c, fmt.Sprintf("Could not update product %s", id), err)
	}
	return c.Redirect(product.URL, fiber.StatusFound)
}

// HandleDelete deletes a product.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.productService.DeleteProduct(c.UserContext(), id); err != nil {
		return respondError(c, fmt.Sprintf("Could not delete product %s", id), err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("item %s was deleted", id),
	})
}

// readForm parses the product fields and classifies the uploaded image.
// An empty body yields an empty form so that validation reports every field.
func (h *ProductHandler) readForm(c *fiber.Ctx) (validation.ProductForm, upload.Result, error) {
	var form validation.ProductForm
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&form); err != nil {
			return form, upload.Result{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	multipart, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, fasthttp.ErrNoMultipartForm) {
			return form, upload.Result{Status: upload.Absent}, nil
		}
		return form, upload.Result{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	files := multipart.File[upload.FieldName]
	switch len(files) {
	case 0:
		return form, upload.Result{Status: upload.Absent}, nil
	case 1:
		return form, h.images.Inspect(upload.FromHeader(files[0])), nil
	default:
		return form, upload.Result{}, fiber.NewError(fiber.StatusBadRequest, "Only one file may be sent as "+upload.FieldName)
	}
}
