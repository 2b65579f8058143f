// internal/app/features/adminshop/importcsv.go
package adminshop

import (
	"html/template"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	categorystore "github.com/bsankara/koasa/internal/app/store/categories"
	productstore "github.com/bsankara/koasa/internal/app/store/products"
	"github.com/bsankara/koasa/internal/app/system/csvutil"
	"github.com/bsankara/koasa/internal/app/system/gates"
	"github.com/bsankara/koasa/internal/app/system/timeouts"
	"github.com/bsankara/koasa/internal/app/system/viewdata"
	"github.com/bsankara/koasa/internal/domain/models"
)

type importResultVM struct {
	viewdata.BaseVM
	Error        template.HTML
	Created      int
	Duplicates   int
	NewCategories int
}

// ImportProductsCSV bulk-loads products from an uploaded CSV
// (name,category,price[,unit[,stock]]). The whole file is validated before
// anything is written; unknown categories are created on the fly, duplicate
// product names are counted and skipped.
// POST /admin/products/import
func (h *Handler) ImportProductsCSV(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "Réservé aux administrateurs.", "/admin")
	if !res.OK {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	if err := r.ParseMultipartForm(csvutil.MaxUploadSize); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse multipart form failed", err,
			"Fichier trop volumineux ou envoi invalide.", "/admin/products")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "missing csv upload", err,
			"Aucun fichier reçu.", "/admin/products")
		return
	}
	defer file.Close()

	rows, htmlErr, err := csvutil.PreScanProductsCSV(file)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "csv parse failed", err,
			"Fichier CSV illisible.", "/admin/products")
		return
	}

	data := importResultVM{
		BaseVM: viewdata.NewBaseVM(r, h.SM, "Import de produits", "/admin/products"),
	}

	if htmlErr != "" {
		data.Error = htmlErr
		templates.Render(w, r, "admin_import_result", data)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "import products csv")
	defer cancel()

	catStore := categorystore.New(h.DB)
	prodStore := productstore.New(h.DB)
	categoryIDs := make(map[string]primitive.ObjectID)

	for _, row := range rows {
		catID, known := categoryIDs[row.Category]
		if !known {
			cat, err := catStore.GetByName(ctx, row.Category)
			switch {
			case err == mongo.ErrNoDocuments:
				created, cerr := catStore.Create(ctx, models.Category{
					Name:     row.Category,
					IsActive: true,
				})
				if cerr != nil && cerr != categorystore.ErrDuplicateName {
					h.ErrLog.LogServerError(w, r, "create category during import failed", cerr,
						"L'import a échoué. Réessayez.", "/admin/products")
					return
				}
				if cerr == categorystore.ErrDuplicateName {
					// Raced with another import; reload it.
					cat, err = catStore.GetByName(ctx, row.Category)
					if err != nil {
						h.ErrLog.LogServerError(w, r, "reload category during import failed", err,
							"L'import a échoué. Réessayez.", "/admin/products")
						return
					}
					catID = cat.ID
				} else {
					catID = created.ID
					data.NewCategories++
				}
			case err != nil:
				h.ErrLog.LogServerError(w, r, "lookup category during import failed", err,
					"L'import a échoué. Réessayez.", "/admin/products")
				return
			default:
				catID = cat.ID
			}
			categoryIDs[row.Category] = catID
		}

		_, err := prodStore.Create(ctx, models.Product{
			Name:        row.Name,
			Price:       row.Price,
			Unit:        row.Unit,
			CategoryID:  catID,
			Stock:       row.Stock,
			IsAvailable: true,
		})
		if err == productstore.ErrDuplicateName {
			data.Duplicates++
			continue
		}
		if err != nil {
			h.ErrLog.LogServerError(w, r, "create product during import failed", err,
				"L'import a échoué en cours de route. Vérifiez la liste des produits.", "/admin/products")
			return
		}
		data.Created++
	}

	h.Audit.CatalogChanged(ctx, r, res.UserID, "products_imported", "")
	h.Log.Info("products csv imported",
		zap.Int("created", data.Created),
		zap.Int("duplicates", data.Duplicates),
		zap.Int("new_categories", data.NewCategories))

	templates.Render(w, r, "admin_import_result", data)
}
