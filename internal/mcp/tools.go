package mcp

import "github.com/mark3labs/mcp-go/mcp"

var stringItems = map[string]any{"type": "string"}

var listToolDef = mcp.NewTool("prompt_list",
	mcp.WithDescription("List stored prompts, optionally filtered by category, tag and a case-insensitive search over text and tags. Results keep library order (newest first)."),
	mcp.WithString("category",
		mcp.Description(`Category filter: "all" (default), "favorite", or a category such as image, video, chat, code.`)),
	mcp.WithString("tag",
		mcp.Description("Only prompts carrying exactly this tag.")),
	mcp.WithString("query",
		mcp.Description("Substring matched case-insensitively against prompt text and tags.")),
	mcp.WithBoolean("brief",
		mcp.Description("Return summaries (title, one-line preview, size estimates) instead of full text.")),
)

var getToolDef = mcp.NewTool("prompt_get",
	mcp.WithDescription("Fetch one prompt by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Prompt id (UUID).")),
	mcp.WithBoolean("include_image",
		mcp.Description("Also return the attached image as a data URI.")),
)

var saveToolDef = mcp.NewTool("prompt_save",
	mcp.WithDescription("Create a prompt, or replace an existing one when id is given. New prompts are placed first in the library."),
	mcp.WithString("id", mcp.Description("Existing prompt id to replace. Omit to create.")),
	mcp.WithString("title", mcp.Description("Optional display title.")),
	mcp.WithString("text", mcp.Required(), mcp.Description("Prompt body.")),
	mcp.WithString("category", mcp.Description("Category. Defaults to image when creating a prompt; an edit stores what is given.")),
	mcp.WithArray("tags", mcp.Items(stringItems), mcp.Description("Tags in display order.")),
	mcp.WithBoolean("favorite", mcp.Description("Mark as favorite.")),
	mcp.WithString("image", mcp.Description("Image to attach, as a data URI or plain base64.")),
	mcp.WithBoolean("keep_image", mcp.Description("When replacing without a new image, keep the current one.")),
)

var deleteToolDef = mcp.NewTool("prompt_delete",
	mcp.WithDescription("Delete a prompt and its image. Deleting an unknown id is not an error."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Prompt id.")),
)

var favoriteToolDef = mcp.NewTool("prompt_favorite",
	mcp.WithDescription("Toggle the favorite flag of a prompt."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Prompt id.")),
)

var tagsToolDef = mcp.NewTool("prompt_tags",
	mcp.WithDescription("List every distinct tag in the library, sorted."),
)

var exportToolDef = mcp.NewTool("prompt_export",
	mcp.WithDescription("Write the whole library, images included, to a JSON backup file. Defaults to ~/.stocker/exports/prompt-stocker-backup-<date>.json."),
	mcp.WithString("path", mcp.Description("Destination .json file directly inside an allowed directory.")),
)

var importToolDef = mcp.NewTool("prompt_import",
	mcp.WithDescription("Merge a JSON backup into the library. Prompts with known ids are replaced in place; entries that fail are reported and skipped."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .json file directly inside an allowed directory.")),
)
