package main

import (
	"fmt"
	"strings"

	"github.com/oukeidos/nyamanga/internal/apperrors"
	"github.com/oukeidos/nyamanga/internal/embedder"
	"github.com/oukeidos/nyamanga/internal/language"
	"github.com/oukeidos/nyamanga/internal/logger"
	"github.com/oukeidos/nyamanga/internal/openai"
	"github.com/oukeidos/nyamanga/internal/panels"
	"github.com/oukeidos/nyamanga/internal/pipeline"
	"github.com/spf13/cobra"
)

const defaultOutput = "output.png"

type panelFlags struct {
	targetLanguage string
	tone           string
	bubbleHint     string
	maskPath       string
	styleHint      string
	output         string
}

func addLanguageFlags(cmd *cobra.Command, f *panelFlags) {
	cmd.Flags().StringVar(&f.targetLanguage, "target-language", embedder.DefaultTargetLanguage, "Target language")
	cmd.Flags().StringVar(&f.tone, "tone", embedder.DefaultTone, "Tone/style hints for the rewrite")
}

func addPlacementFlags(cmd *cobra.Command, f *panelFlags) {
	cmd.Flags().StringVar(&f.bubbleHint, "bubble-hint", "", "Rough placement hints (e.g. top-left balloon)")
	cmd.Flags().StringVar(&f.maskPath, "mask", "", "Optional PNG mask")
	cmd.Flags().StringVar(&f.styleHint, "style", "", "Typesetting style hint")
}

func addOutputFlag(cmd *cobra.Command, f *panelFlags) {
	cmd.Flags().StringVarP(&f.output, "output", "o", defaultOutput, "Where to save the edited image")
}

func (f *panelFlags) request(image, text string) pipeline.PanelRequest {
	return pipeline.PanelRequest{
		ImagePath:      image,
		SourceText:     text,
		TargetLanguage: targetLanguage(f.targetLanguage),
		Tone:           f.tone,
		BubbleHint:     f.bubbleHint,
		MaskPath:       f.maskPath,
		StyleHint:      f.styleHint,
	}
}

// targetLanguage maps known names and aliases to a language code. Anything
// else is passed to the model as written.
func targetLanguage(input string) string {
	if lang, ok := language.Get(input); ok {
		return lang.Code
	}
	if strings.TrimSpace(input) != "" {
		logger.Debug("target language not in catalog", "language", input)
	}
	return strings.TrimSpace(input)
}

func newRewriteCmd(g *globalOptions) *cobra.Command {
	f := &panelFlags{}
	cmd := &cobra.Command{
		Use:   "rewrite <text>",
		Short: "Rewrite/translate dialogue only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPipeline(cmd, g)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			res, err := p.Embedder().RewriteDialogue(ctx, args[0], embedder.RewriteOptions{
				TargetLanguage: targetLanguage(f.targetLanguage),
				Tone:           f.tone,
			})
			if err != nil {
				return runError(ctx, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return nil
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addLanguageFlags(cmd, f)
	return cmd
}

func newEmbedCmd(g *globalOptions) *cobra.Command {
	f := &panelFlags{}
	cmd := &cobra.Command{
		Use:   "embed <image> <text>",
		Short: "Typeset the given text into a panel image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := panels.CheckFile(args[0]); err != nil {
				return err
			}
			if ok, err := confirmOutput(cmd, f.output, g.yes); err != nil || !ok {
				return err
			}
			p, err := openPipeline(cmd, g)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			res, err := p.Embedder().EmbedText(ctx, args[0], args[1], embedder.EmbedOptions{
				BubbleHint: f.bubbleHint,
				MaskPath:   f.maskPath,
				StyleHint:  f.styleHint,
			})
			if err != nil {
				return runError(ctx, err)
			}
			if err := res.Save(f.output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Edited image saved to %s\n", f.output)
			return nil
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addPlacementFlags(cmd, f)
	addOutputFlag(cmd, f)
	return cmd
}

func newLocalizeCmd(g *globalOptions) *cobra.Command {
	f := &panelFlags{}
	cmd := &cobra.Command{
		Use:   "localize <image> [text]",
		Short: "Rewrite dialogue and typeset it into a panel (auto mode without text)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := ""
			if len(args) > 1 {
				text = args[1]
			}
			req := f.request(args[0], text)
			if err := panels.CheckFile(req.ImagePath); err != nil {
				return err
			}
			if ok, err := confirmOutput(cmd, f.output, g.yes); err != nil || !ok {
				return err
			}
			p, err := openPipeline(cmd, g)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			res, err := p.LocalizePanel(ctx, req)
			if err != nil {
				return runError(ctx, err)
			}
			if err := res.Save(f.output); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Mode == pipeline.ModeTwoStep {
				fmt.Fprintf(out, "Rewritten text: %s\n", res.RewrittenText)
			}
			fmt.Fprintf(out, "Edited image saved to %s\n", f.output)
			return nil
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addLanguageFlags(cmd, f)
	addPlacementFlags(cmd, f)
	addOutputFlag(cmd, f)
	return cmd
}

type generateOptions struct {
	size   string
	output string
}

func newGenerateCmd(g *globalOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate an image from a text prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ok, err := confirmOutput(cmd, opts.output, g.yes); err != nil || !ok {
				return err
			}
			p, err := openPipeline(cmd, g)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			client := p.Client()
			resp, err := client.GenerateImage(ctx, openai.GenerateRequest{
				Prompt: args[0],
				Model:  client.Config().ImageModel,
				Size:   opts.size,
			})
			if err != nil {
				return runError(ctx, err)
			}
			payload, err := embedder.FirstImage(resp)
			if err != nil {
				return err
			}
			if payload.B64 == "" {
				return apperrors.New(apperrors.KindDecode, "The API returned no image.", embedder.ErrNoImage)
			}
			res := &embedder.EmbedResult{ImageB64: payload.B64, RawResponse: resp}
			if err := res.Save(opts.output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated image saved to %s\n", opts.output)
			return nil
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().StringVar(&opts.size, "size", "", "Image size, e.g. 1024x1024 (model default if empty)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", defaultOutput, "Where to save the generated image")
	return cmd
}
