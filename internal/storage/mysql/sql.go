package mysql

// Note: `comment` is reserved; keep it quoted everywhere.
const insertReviewSQL = "INSERT INTO reviews\n" +
	"  (review_id, reviewer_user_id, reviewed_user_id, skill_id, rating, `comment`, created_at, updated_at)\n" +
	"VALUES\n" +
	"  (?, ?, ?, ?, ?, ?, ?, ?)"

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Newest first; aligns with the index on (reviewed_user_id, created_at, review_id).
const listReviewsForProviderSQL = "SELECT\n" +
	"  review_id, reviewer_user_id, reviewed_user_id, skill_id, rating, `comment`, created_at, updated_at\n" +
	"FROM reviews\n" +
	"WHERE reviewed_user_id = ?\n" +
	"ORDER BY created_at DESC, review_id DESC\n" +
	"LIMIT ?"

const listProvidersSQL = `
SELECT DISTINCT reviewed_user_id
FROM reviews
ORDER BY reviewed_user_id
`
