// internal/store/postgres/queries.go
package postgres

const bikeColumns = `
		SELECT b.id, b.name, b.slug, b.category, b.engine_capacity, b.price,
		       b.primary_image, b.popularity_score, b.is_available,
		       br.id, br.name, br.is_popular
		FROM bikes_bikemodel b
		JOIN bikes_brand br ON br.id = b.brand_id`

const findBikeBySlug = bikeColumns + `
		WHERE b.slug = $1`

// $1 excluded id (0 excludes nothing), $2 category ('' for any)
const findBikePool = bikeColumns + `
		WHERE b.is_available = TRUE
		  AND b.id <> $1
		  AND ($2 = '' OR b.category = $2)
		ORDER BY b.popularity_score DESC, b.name ASC`

// $1 status, $2/$3 inclusive price band
const findListingPool = `
		SELECT l.id, l.title, l.price, l.mileage, l.manufacturing_year, l.location,
		       l.is_verified, l.is_featured, l.status,
		       l.custom_brand, l.custom_model, l.bike_model_id, bm.name
		FROM marketplace_usedbikelisting l
		LEFT JOIN bikes_bikemodel bm ON bm.id = l.bike_model_id
		WHERE l.status = $1
		  AND l.price BETWEEN $2 AND $3
		ORDER BY l.is_featured DESC, l.created_at DESC`

const findListingImages = `
		SELECT listing_id, image_url, is_primary, "order"
		FROM marketplace_listingimage
		WHERE listing_id = ANY($1)
		ORDER BY listing_id, "order", id`
