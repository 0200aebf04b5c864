package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/imaging"
)

type fakeMediaStore struct {
	objects map[string][]byte
	deleted []string
	failOn  string
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{objects: make(map[string][]byte)}
}

func (f *fakeMediaStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if f.failOn != "" && strings.Contains(key, f.failOn) {
		return "", errors.New("bucket unavailable")
	}
	f.objects[key] = data
	return f.URL(key), nil
}

func (f *fakeMediaStore) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeMediaStore) URL(key string) string {
	return "https://cdn.test/" + key
}

type fakeProcessor struct {
	err error
}

func (f fakeProcessor) Process(data []byte, withThumbnail bool) (*imaging.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	res := &imaging.Result{Image: imaging.Rendition{Data: []byte("webp:" + string(data)), Width: 800, Height: 600}}
	if withThumbnail {
		res.Thumbnail = &imaging.Rendition{Data: []byte("thumb"), Width: 400, Height: 400}
	}
	return res, nil
}

func newTestMedia(store *fakeMediaStore) *MediaService {
	return NewMediaService(store, fakeProcessor{}, nil, nil, MediaConfig{KeyPrefix: "uploads", MaxFileBytes: 1024})
}

type fakeNewsRepo struct {
	items map[string]*models.News
	seq   int
}

func newFakeNewsRepo() *fakeNewsRepo {
	return &fakeNewsRepo{items: make(map[string]*models.News)}
}

func (f *fakeNewsRepo) List(ctx context.Context, filter models.NewsFilter) ([]models.News, int, error) {
	out := make([]models.News, 0)
	for _, item := range f.items {
		if filter.Published != nil && item.IsPublished != *filter.Published {
			continue
		}
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeNewsRepo) FindByID(ctx context.Context, id string) (*models.News, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *item
	return &copy, nil
}

func (f *fakeNewsRepo) FindBySlug(ctx context.Context, slug string) (*models.News, error) {
	for _, item := range f.items {
		if item.Slug == slug {
			copy := *item
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeNewsRepo) ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error) {
	for _, item := range f.items {
		if item.Slug == slug && item.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNewsRepo) Create(ctx context.Context, item *models.News) error {
	f.seq++
	item.ID = "n" + strconv.Itoa(f.seq)
	copy := *item
	f.items[item.ID] = &copy
	return nil
}

func (f *fakeNewsRepo) Update(ctx context.Context, item *models.News) error {
	copy := *item
	f.items[item.ID] = &copy
	return nil
}

func (f *fakeNewsRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

type fakeGalleryRepo struct {
	categories map[string]*models.GalleryCategory
	images     map[string]*models.GalleryImage
	seq        int
}

func newFakeGalleryRepo() *fakeGalleryRepo {
	return &fakeGalleryRepo{categories: make(map[string]*models.GalleryCategory), images: make(map[string]*models.GalleryImage)}
}

func (f *fakeGalleryRepo) nextID(prefix string) string {
	f.seq++
	return prefix + strconv.Itoa(f.seq)
}

func (f *fakeGalleryRepo) ListCategories(ctx context.Context) ([]models.GalleryCategorySummary, error) {
	out := make([]models.GalleryCategorySummary, 0, len(f.categories))
	for _, c := range f.categories {
		summary := models.GalleryCategorySummary{GalleryCategory: *c}
		for _, img := range f.images {
			if img.CategoryID == c.ID {
				summary.ImageCount++
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

func (f *fakeGalleryRepo) FindCategory(ctx context.Context, id string) (*models.GalleryCategory, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *c
	return &copy, nil
}

func (f *fakeGalleryRepo) FindCategoryBySlug(ctx context.Context, slug string) (*models.GalleryCategory, error) {
	for _, c := range f.categories {
		if c.Slug == slug {
			copy := *c
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeGalleryRepo) CategorySlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	for _, c := range f.categories {
		if c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGalleryRepo) CreateCategory(ctx context.Context, item *models.GalleryCategory) error {
	item.ID = f.nextID("cat")
	copy := *item
	f.categories[item.ID] = &copy
	return nil
}

func (f *fakeGalleryRepo) UpdateCategory(ctx context.Context, item *models.GalleryCategory) error {
	copy := *item
	f.categories[item.ID] = &copy
	return nil
}

func (f *fakeGalleryRepo) DeleteCategory(ctx context.Context, id string) error {
	if _, ok := f.categories[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.categories, id)
	for imgID, img := range f.images {
		if img.CategoryID == id {
			delete(f.images, imgID)
		}
	}
	return nil
}

func (f *fakeGalleryRepo) ListImages(ctx context.Context, categoryID string) ([]models.GalleryImage, error) {
	out := make([]models.GalleryImage, 0)
	for _, img := range f.images {
		if img.CategoryID == categoryID {
			out = append(out, *img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeGalleryRepo) FindImage(ctx context.Context, id string) (*models.GalleryImage, error) {
	img, ok := f.images[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *img
	return &copy, nil
}

func (f *fakeGalleryRepo) NextImagePosition(ctx context.Context, categoryID string) (int, error) {
	next := 0
	for _, img := range f.images {
		if img.CategoryID == categoryID && img.Position >= next {
			next = img.Position + 1
		}
	}
	return next, nil
}

func (f *fakeGalleryRepo) CreateImage(ctx context.Context, item *models.GalleryImage) error {
	item.ID = f.nextID("img")
	copy := *item
	f.images[item.ID] = &copy
	return nil
}

func (f *fakeGalleryRepo) DeleteImage(ctx context.Context, id string) error {
	if _, ok := f.images[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.images, id)
	return nil
}

type fakeSlideRepo struct {
	items map[string]*models.Slide
	seq   int
}

func newFakeSlideRepo() *fakeSlideRepo {
	return &fakeSlideRepo{items: make(map[string]*models.Slide)}
}

func (f *fakeSlideRepo) List(ctx context.Context, activeOnly bool) ([]models.Slide, error) {
	out := make([]models.Slide, 0)
	for _, item := range f.items {
		if activeOnly && !item.Active {
			continue
		}
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeSlideRepo) FindByID(ctx context.Context, id string) (*models.Slide, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *item
	return &copy, nil
}

func (f *fakeSlideRepo) NextPosition(ctx context.Context) (int, error) {
	next := 0
	for _, item := range f.items {
		if item.Position >= next {
			next = item.Position + 1
		}
	}
	return next, nil
}

func (f *fakeSlideRepo) Create(ctx context.Context, item *models.Slide) error {
	f.seq++
	item.ID = "sl" + strconv.Itoa(f.seq)
	copy := *item
	f.items[item.ID] = &copy
	return nil
}

func (f *fakeSlideRepo) Update(ctx context.Context, item *models.Slide) error {
	copy := *item
	copy.Position = f.items[item.ID].Position
	f.items[item.ID] = &copy
	return nil
}

func (f *fakeSlideRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeSlideRepo) Reorder(ctx context.Context, updates []models.PositionUpdate) error {
	for _, u := range updates {
		if _, ok := f.items[u.ID]; !ok {
			return sql.ErrNoRows
		}
	}
	for _, u := range updates {
		f.items[u.ID].Position = u.Position
	}
	return nil
}

type fakeFacilityRepo struct {
	items map[string]*models.Facility
	seq   int
}

func newFakeFacilityRepo() *fakeFacilityRepo {
	return &fakeFacilityRepo{items: make(map[string]*models.Facility)}
}

func (f *fakeFacilityRepo) List(ctx context.Context) ([]models.Facility, error) {
	out := make([]models.Facility, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, *item)
	}
	return out, nil
}

func (f *fakeFacilityRepo) FindByID(ctx context.Context, id string) (*models.Facility, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *item
	return &copy, nil
}

func (f *fakeFacilityRepo) FindBySlug(ctx context.Context, slug string) (*models.Facility, error) {
	for _, item := range f.items {
		if item.Slug == slug {
			copy := *item
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeFacilityRepo) ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error) {
	for _, item := range f.items {
		if item.Slug == slug && item.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFacilityRepo) Create(ctx context.Context, item *models.Facility) error {
	f.seq++
	item.ID = "f" + strconv.Itoa(f.seq)
	copy := *item
	f.items[item.ID] = &copy
	return nil
}

func (f *fakeFacilityRepo) Update(ctx context.Context, item *models.Facility) error {
	copy := *item
	f.items[item.ID] = &copy
	return nil
}

func (f *fakeFacilityRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.items, id)
	return nil
}
