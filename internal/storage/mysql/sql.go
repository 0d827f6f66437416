package mysql

const insertActivitiesPrefix = "INSERT INTO activities\n" +
	"  (id, title, category, venue_name, address, neighborhood, start_time, end_time, price_range, rating_score, source, url)\n" +
	"VALUES "

// COALESCE keeps the stored value when a re-ingested listing omits a nullable field.
const insertActivitiesOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  title        = VALUES(title),\n" +
	"  category     = VALUES(category),\n" +
	"  venue_name   = COALESCE(VALUES(venue_name), activities.venue_name),\n" +
	"  address      = COALESCE(VALUES(address), activities.address),\n" +
	"  neighborhood = COALESCE(VALUES(neighborhood), activities.neighborhood),\n" +
	"  start_time   = VALUES(start_time),\n" +
	"  end_time     = COALESCE(VALUES(end_time), activities.end_time),\n" +
	"  price_range  = VALUES(price_range),\n" +
	"  rating_score = COALESCE(VALUES(rating_score), activities.rating_score),\n" +
	"  source       = VALUES(source),\n" +
	"  url          = COALESCE(VALUES(url), activities.url),\n" +
	"  updated_at   = CURRENT_TIMESTAMP\n"

const insertMissSQL = `
INSERT INTO ingest_misses (source, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  http_status = VALUES(http_status),
  reason      = VALUES(reason),
  seen_at     = CURRENT_TIMESTAMP
`

const insertSavedPlanSQL = `
INSERT INTO saved_plans (id, user_id, plan, created_at)
VALUES (?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Window bounds are inclusive on both ends. Ties on start_time fall back to id
// so the candidate order handed to the planner is stable across calls.
const listActivitiesSQL = `
SELECT
  id, title, category, venue_name, address, neighborhood,
  start_time, end_time, price_range, rating_score, source, url
FROM activities
WHERE start_time BETWEEN ? AND ?
`

const listActivitiesOrder = `ORDER BY start_time, id`

const listSavedPlansSQL = `
SELECT id, user_id, plan, created_at
FROM saved_plans
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`
