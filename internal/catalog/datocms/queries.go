package datocms

const productFields = `
	id
	name
	slug
	price
	discount
	stockstatus
	description
	category { id name slug }
	images { url }
	featured`

const (
	queryCategories = `query Categories {
  allCategories(first: 100) {
    id
    name
    slug
    description
    thumbnail { url }
  }
}`

	queryFeaturedProducts = `query FeaturedProducts {
  allProducts(filter: { featured: { eq: true } }, first: 24) {` + productFields + `
  }
}`

	queryProductsByCategory = `query ProductsByCategory($slug: String) {
  allProducts(filter: { category: { slug: { eq: $slug } } }, first: 200) {` + productFields + `
  }
  category(filter: { slug: { eq: $slug } }) {
    id
    name
    slug
    description
  }
}`

	queryProductBySlug = `query ProductBySlug($slug: String) {
  product(filter: { slug: { eq: $slug } }) {` + productFields + `
  }
}`

	queryProductsBySlugs = `query ProductsBySlugs($slugs: [String!]) {
  allProducts(filter: { slug: { in: $slugs } }, first: 200) {
    id
    name
    slug
    price
    discount
    images { url }
  }
}`

	queryProductSlugs = `query AllProductSlugs($first: IntType) {
  allProducts(first: $first) { slug }
}`

	queryCategorySlugs = `query AllCategorySlugs($first: IntType) {
  allCategories(first: $first) { slug }
}`
)
